package domain

// mustParse is ParseVersion for literals known to be valid.
func mustParse(text string) *Version {
	v, err := ParseVersion(text)
	if err != nil {
		panic(err)
	}
	return v
}
