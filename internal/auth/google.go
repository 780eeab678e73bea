package auth

// SimulatedGoogleUserID derives a stable user ID from a Google ID token
// without calling Google. The real verification flow is stubbed out; the
// first characters of the token stand in for the Google subject.
func SimulatedGoogleUserID(idToken string) string {
	const prefixLen = 10
	suffix := idToken
	if len(suffix) > prefixLen {
		suffix = suffix[:prefixLen]
	}
	return "google-user-" + suffix
}
