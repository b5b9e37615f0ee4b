package domain

// AuthResult is what a successful login or refresh produces: a freshly minted
// token pair plus the redacted principal projection. The refresh token only
// ever travels to the client inside the httpOnly cookie.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         Profile
}
