package verifier

import (
	"net/url"
	"strings"
)

// Curated domain allow-lists. Order of classification matters: satire
// is checked before the trusted tiers so a satire URL can never be
// promoted by a later rule.

var tier1Domains = []string{
	"reuters.com", "apnews.com", "afp.com", "bbc.com", "bbc.co.uk",
	"theguardian.com", "aljazeera.com", "nytimes.com", "washingtonpost.com",
	"wsj.com", "bloomberg.com", "npr.org", "pbs.org", "usatoday.com", "time.com",
	"nature.com", "sciencemag.org", "scientificamerican.com",
	"technologyreview.com", "arstechnica.com",
	"who.int", "cdc.gov", "nih.gov", "nasa.gov",
}

var factCheckDomains = []string{
	"snopes.com", "factcheck.org", "politifact.com", "fullfact.org",
	"checkyourfact.com", "truthorfiction.com", "africacheck.org",
}

var unreliableDomains = []string{
	"naturalnews.com", "infowars.com", "beforeitsnews.com",
	"yournewswire.com", "worldnewsdailyreport.com",
}

var satireDomains = []string{
	"theonion.com", "clickhole.com", "babylonbee.com",
	"waterfordwhispersnews.com", "thebeaverton.com", "reductress.com",
}

type URLCredibility struct {
	Credibility string `json:"credibility"`
	Tier        int    `json:"tier"`
	Description string `json:"description"`
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func domainIn(domain string, list []string) bool {
	for _, d := range list {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

func IsTier1(rawURL string) bool {
	return domainIn(domainOf(rawURL), tier1Domains)
}

// ClassifyURL is a pure lookup, no network and no cache involved.
func ClassifyURL(rawURL string) URLCredibility {
	domain := domainOf(rawURL)
	switch {
	case domainIn(domain, satireDomains):
		return URLCredibility{Credibility: "satire", Tier: 4, Description: "Known satire - not factual news"}
	case domainIn(domain, tier1Domains):
		return URLCredibility{Credibility: "high", Tier: 1, Description: "Highly trusted source"}
	case domainIn(domain, factCheckDomains):
		return URLCredibility{Credibility: "high", Tier: 1, Description: "Fact-checking organisation"}
	case domainIn(domain, unreliableDomains):
		return URLCredibility{Credibility: "unreliable", Tier: 4, Description: "Known misinformation source"}
	default:
		return URLCredibility{Credibility: "unknown", Tier: 3, Description: "Source credibility unestablished"}
	}
}
