package event

import "time"

// Kind discriminates the logical record shapes that share the Event
// struct. Records written by older sensors may lack the field; readers
// recover it with InferKind.
type Kind string

const (
	KindAuthAttempt Kind = "auth_attempt"
	KindWebVisit    Kind = "web_visit"
	KindFTPCommand  Kind = "ftp_command"
)

// Service identifies the emulated endpoint that captured an event.
// Web visits and web login attempts carry distinct values so they can
// be told apart in aggregation.
type Service string

const (
	ServiceSSH      Service = "ssh"
	ServiceFTP      Service = "ftp"
	ServiceTelnet   Service = "telnet"
	ServiceWeb      Service = "web"
	ServiceWebLogin Service = "web_login"
)

// Stream names one of the append-only record streams in the store.
type Stream string

const (
	StreamAuthAttempts Stream = "auth_attempts"
	StreamWebVisits    Stream = "web_visits"
	StreamFTPCommands  Stream = "ftp_commands"
)

// Streams lists every stream the sensor writes, in the order the
// analysis engine reads them.
var Streams = []Stream{StreamAuthAttempts, StreamWebVisits, StreamFTPCommands}

// Event is one captured fact: a credential guess, a web visit, or a raw
// FTP command. Immutable once appended to the store. Timestamp is
// assigned by the sensor at the moment of capture, never peer-supplied.
type Event struct {
	Kind       Kind      `json:"kind,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	SourceIP   string    `json:"source_ip"`
	SourcePort int       `json:"source_port,omitempty"`
	Service    Service   `json:"service"`
	Username   string    `json:"username,omitempty"`
	Password   string    `json:"password,omitempty"`
	Command    string    `json:"command,omitempty"`
	Path       string    `json:"path,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}

// NewAuthAttempt builds a credential-capture event for any of the
// emulated services.
func NewAuthAttempt(svc Service, sourceIP string, sourcePort int, username, password string) Event {
	return Event{
		Kind:       KindAuthAttempt,
		Timestamp:  time.Now(),
		SourceIP:   sourceIP,
		SourcePort: sourcePort,
		Service:    svc,
		Username:   username,
		Password:   password,
	}
}

// NewWebVisit builds a visit record for the web honeypot.
func NewWebVisit(sourceIP, path, userAgent string) Event {
	return Event{
		Kind:      KindWebVisit,
		Timestamp: time.Now(),
		SourceIP:  sourceIP,
		Service:   ServiceWeb,
		Path:      path,
		UserAgent: userAgent,
	}
}

// NewFTPCommand builds an activity record carrying one raw command line
// as received from the peer.
func NewFTPCommand(sourceIP string, sourcePort int, command string) Event {
	return Event{
		Kind:       KindFTPCommand,
		Timestamp:  time.Now(),
		SourceIP:   sourceIP,
		SourcePort: sourcePort,
		Service:    ServiceFTP,
		Command:    command,
	}
}

// InferKind classifies a record by which optional fields are populated.
// This matches the shape-based dispatch of records written without an
// explicit kind tag.
func InferKind(ev Event) Kind {
	switch {
	case ev.Username != "" || ev.Password != "":
		return KindAuthAttempt
	case ev.Command != "":
		return KindFTPCommand
	default:
		return KindWebVisit
	}
}

// StreamFor maps an event kind to the stream it is persisted in.
func StreamFor(k Kind) Stream {
	switch k {
	case KindWebVisit:
		return StreamWebVisits
	case KindFTPCommand:
		return StreamFTPCommands
	default:
		return StreamAuthAttempts
	}
}
