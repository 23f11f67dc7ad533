package user

// Language is the interface language chosen at registration.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == English || l == Hindi
}

// User is a locally registered profile.
//
// Password is kept in plaintext. Accounts are a local demo convenience and carry no security properties.
type User struct {
	Username string   `json:"username"`
	FullName string   `json:"fullName"`
	Password string   `json:"password,omitempty"`
	Language Language `json:"language"`
}

// Public strips the password before the record leaves the service.
func (u User) Public() User {
	u.Password = ""
	return u
}
