package core

// AuthSession represents the account the wallet authorized for this app
type AuthSession struct {
	AccountID string   `json:"accountId"` // Account the wallet signed in
	AllKeys   []string `json:"allKeys"`   // Public keys the wallet reported as authorized
}

// SignedIn reports whether the session carries an account.
func (s *AuthSession) SignedIn() bool {
	return s != nil && s.AccountID != ""
}

// HasKey reports whether the wallet listed publicKey among the authorized keys.
func (s *AuthSession) HasKey(publicKey string) bool {
	if s == nil {
		return false
	}
	for _, k := range s.AllKeys {
		if k == publicKey {
			return true
		}
	}
	return false
}

// CallbackParams are the values the wallet appends to the return URL
type CallbackParams struct {
	PublicKey         string   // Access key the wallet added for the app, if any
	AllKeys           []string // All keys the wallet reports for the account
	AccountID         string   // Signed-in account
	Meta              string   // Opaque value the app sent on the way out
	TransactionHashes []string // Hashes of transactions the wallet broadcast
	ErrorCode         string   // Failure code reported by the wallet
	ErrorMessage      string   // Failure description reported by the wallet
}

// Err returns the wallet-reported failure, if any.
func (p CallbackParams) Err() error {
	if p.ErrorCode == "" && p.ErrorMessage == "" {
		return nil
	}
	return &CallbackError{Code: p.ErrorCode, Message: p.ErrorMessage}
}
