// Package analysis turns the accumulated event streams into ranked
// frequency tables and cross-stream statistics. It is a pure function
// of the three streams plus an enrichment snapshot; it never mutates
// either.
package analysis

import (
	"sort"

	"github.com/lucid-vigil/decoynet/pkg/enrich"
	"github.com/lucid-vigil/decoynet/pkg/event"
)

// Unknown is what a missing username, password, path, agent or command
// counts as. Source IPs with no enrichment entry are the deliberate
// exception: they contribute to no country bucket at all.
const Unknown = "unknown"

// Report is the full output of one analysis run.
type Report struct {
	Services      []Entry
	AuthSourceIPs []Entry
	Usernames     []Entry
	Passwords     []Entry
	Credentials   []Entry
	Countries     []Entry

	WebSourceIPs []Entry
	Paths        []Entry
	UserAgents   []Entry

	FTPSourceIPs []Entry
	Commands     []Entry

	TotalAuthAttempts int
	TotalWebVisits    int
	TotalFTPCommands  int
	DistinctIPs       int
	DistinctCountries int
	CountryNames      []string

	locations map[string]string
}

// Analyze computes every ranking table and scalar statistic from the
// three streams and the enrichment snapshot.
func Analyze(auth, web, ftp []event.Event, geo enrich.Map) *Report {
	r := &Report{
		TotalAuthAttempts: len(auth),
		TotalWebVisits:    len(web),
		TotalFTPCommands:  len(ftp),
		locations:         make(map[string]string),
	}

	services := NewCounter()
	authIPs := NewCounter()
	usernames := NewCounter()
	passwords := NewCounter()
	credentials := NewCounter()
	countries := NewCounter()
	for _, ev := range auth {
		services.Add(orUnknown(string(ev.Service)))
		authIPs.Add(orUnknown(ev.SourceIP))
		user := orUnknown(ev.Username)
		pass := orUnknown(ev.Password)
		usernames.Add(user)
		passwords.Add(pass)
		credentials.Add(user + ":" + pass)
		if rec, ok := geo[ev.SourceIP]; ok {
			countries.Add(rec.Country)
		}
	}
	r.Services = services.Ranking()
	r.AuthSourceIPs = authIPs.Ranking()
	r.Usernames = usernames.Ranking()
	r.Passwords = passwords.Ranking()
	r.Credentials = credentials.Ranking()
	r.Countries = countries.Ranking()

	webIPs := NewCounter()
	paths := NewCounter()
	agents := NewCounter()
	for _, ev := range web {
		webIPs.Add(orUnknown(ev.SourceIP))
		paths.Add(orUnknown(ev.Path))
		agents.Add(orUnknown(ev.UserAgent))
	}
	r.WebSourceIPs = webIPs.Ranking()
	r.Paths = paths.Ranking()
	r.UserAgents = agents.Ranking()

	ftpIPs := NewCounter()
	commands := NewCounter()
	for _, ev := range ftp {
		ftpIPs.Add(orUnknown(ev.SourceIP))
		commands.Add(orUnknown(ev.Command))
	}
	r.FTPSourceIPs = ftpIPs.Ranking()
	r.Commands = commands.Ranking()

	// Cross-stream scalars. Source IPs are recorded literally, so an
	// empty address still counts as one distinct value.
	allIPs := make(map[string]struct{})
	for _, events := range [][]event.Event{auth, web, ftp} {
		for _, ev := range events {
			allIPs[ev.SourceIP] = struct{}{}
		}
	}
	r.DistinctIPs = len(allIPs)

	countrySet := make(map[string]struct{})
	for ip := range allIPs {
		if rec, ok := geo[ip]; ok {
			countrySet[rec.Country] = struct{}{}
		}
	}
	r.DistinctCountries = len(countrySet)
	for country := range countrySet {
		r.CountryNames = append(r.CountryNames, country)
	}
	sort.Strings(r.CountryNames)

	for ip := range allIPs {
		if rec, ok := geo[ip]; ok {
			r.locations[ip] = rec.City + ", " + rec.Country
		}
	}

	return r
}

// Location returns the "City, Country" annotation for an IP, or
// "Unknown" when the enrichment snapshot has no entry.
func (r *Report) Location(ip string) string {
	if loc, ok := r.locations[ip]; ok {
		return loc
	}
	return "Unknown"
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
