package contextkeys

// contextKey is unexported so no other package can collide with these keys.
type contextKey string

// DBContextKey holds the *gorm.DB (pool or transaction) for the request.
const DBContextKey = contextKey("db")

// UserIDKey is the gin key the auth middleware stores the caller's id under.
const UserIDKey = "userID"
