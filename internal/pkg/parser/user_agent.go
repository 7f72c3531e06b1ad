package parser

import "strings"

type Client struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
}

func ParseUserAgent(ua string) Client {
	uaLower := strings.ToLower(ua)
	c := Client{OS: "Unknown", Browser: "Unknown"}

	switch {
	case strings.Contains(uaLower, "android"):
		c.OS = "Android"
	case strings.Contains(uaLower, "iphone") || strings.Contains(uaLower, "ipad"):
		c.OS = "iOS"
	case strings.Contains(uaLower, "windows"):
		c.OS = "Windows"
	case strings.Contains(uaLower, "mac os"):
		c.OS = "macOS"
	case strings.Contains(uaLower, "linux"):
		c.OS = "Linux"
	}

	// Edge and Chrome both advertise Safari; order matters.
	switch {
	case strings.Contains(uaLower, "edg/") || strings.Contains(uaLower, "edge"):
		c.Browser = "Edge"
	case strings.Contains(uaLower, "firefox"):
		c.Browser = "Firefox"
	case strings.Contains(uaLower, "chrome"):
		c.Browser = "Chrome"
	case strings.Contains(uaLower, "safari"):
		c.Browser = "Safari"
	case strings.Contains(uaLower, "curl"):
		c.Browser = "curl"
	}

	return c
}
