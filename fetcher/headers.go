package fetcher

// Request identity shared by every loader.
const (
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:97.0) Gecko/20100101 Firefox/97.0"
	Accept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	AcceptLanguage = "en-US,en;q=0.5"
)

// Headers returns the extra request headers sent with every page load. The
// From header is included only when from is set.
func Headers(from string) map[string]string {
	h := map[string]string{
		"User-Agent":      UserAgent,
		"Accept":          Accept,
		"Accept-Language": AcceptLanguage,
	}
	if from != "" {
		h["From"] = from
	}
	return h
}
