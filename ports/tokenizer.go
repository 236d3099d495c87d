package ports

// Tokenizer converts stored items to and from a tamper-evident token
type Tokenizer interface {
	ItemsToToken(items map[string]string) (string, error)
	TokenToItems(token string) (map[string]string, error)
}
