package analysis

import (
	"fmt"
	"io"
	"strings"
)

// Render writes the report as plain text, section by section: auth
// attempts, web visits, FTP commands, then the cross-stream footer.
// Streams with no events get a note instead of empty tables.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintln(w, "=== Honeypot Log Analysis ===")

	if r.TotalAuthAttempts > 0 {
		r.renderAuth(w)
	} else {
		fmt.Fprintln(w, "[!] No authentication attempts found.")
	}

	if r.TotalWebVisits > 0 {
		r.renderWeb(w)
	} else {
		fmt.Fprintln(w, "[!] No web visits found.")
	}

	if r.TotalFTPCommands > 0 {
		r.renderFTP(w)
	} else {
		fmt.Fprintln(w, "[!] No FTP commands found.")
	}

	fmt.Fprintln(w, "\n=== Overall Statistics ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total authentication attempts: %d\n", r.TotalAuthAttempts)
	fmt.Fprintf(w, "Total web visits: %d\n", r.TotalWebVisits)
	fmt.Fprintf(w, "Total FTP commands: %d\n", r.TotalFTPCommands)
	fmt.Fprintf(w, "Unique IP addresses: %d\n", r.DistinctIPs)
	fmt.Fprintf(w, "Countries detected: %d\n", r.DistinctCountries)
	if len(r.CountryNames) > 0 {
		fmt.Fprintf(w, "Countries: %s\n", strings.Join(r.CountryNames, ", "))
	}
}

func (r *Report) renderAuth(w io.Writer) {
	fmt.Fprintln(w, "\n=== Authentication Attempts Analysis ===")

	fmt.Fprintln(w, "\nAttempts by Service:")
	renderTable(w, r.Services)

	fmt.Fprintln(w, "\nTop 10 Source IPs:")
	r.renderIPTable(w, TopN(r.AuthSourceIPs, 10))

	fmt.Fprintln(w, "\nTop 10 Usernames:")
	renderTable(w, TopN(r.Usernames, 10))

	fmt.Fprintln(w, "\nTop 10 Passwords:")
	renderTable(w, TopN(r.Passwords, 10))

	fmt.Fprintln(w, "\nTop 10 Username/Password Combinations:")
	renderTable(w, TopN(r.Credentials, 10))

	fmt.Fprintln(w, "\nAttacks by Country:")
	renderTable(w, r.Countries)
}

func (r *Report) renderWeb(w io.Writer) {
	fmt.Fprintln(w, "\n=== Web Visits Analysis ===")

	fmt.Fprintln(w, "\nTop 10 Source IPs:")
	r.renderIPTable(w, TopN(r.WebSourceIPs, 10))

	fmt.Fprintln(w, "\nRequested Paths:")
	renderTable(w, r.Paths)

	fmt.Fprintln(w, "\nTop 10 User Agents:")
	renderTable(w, TopN(r.UserAgents, 10))
}

func (r *Report) renderFTP(w io.Writer) {
	fmt.Fprintln(w, "\n=== FTP Commands Analysis ===")

	fmt.Fprintln(w, "\nTop 10 Source IPs:")
	r.renderIPTable(w, TopN(r.FTPSourceIPs, 10))

	fmt.Fprintln(w, "\nTop FTP Commands:")
	renderTable(w, r.Commands)
}

func (r *Report) renderIPTable(w io.Writer, entries []Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "  %s (%s): %d\n", e.Key, r.Location(e.Key), e.Count)
	}
}

func renderTable(w io.Writer, entries []Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "  %s: %d\n", e.Key, e.Count)
	}
}
