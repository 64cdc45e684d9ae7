package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		_, _ = fmt.Fprintln(o.errW, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	o.Print(MessageResult{Message: msg})
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Participant:
		o.printParticipant(v)
	case []Participant:
		o.printParticipants(v)
	case CheckInResult:
		_, _ = fmt.Fprintln(o.w, v.Message)
	case Stats:
		o.printStats(v)
	case MessageResult:
		_, _ = fmt.Fprintln(o.w, v.Message)
	case SessionResult:
		_, _ = fmt.Fprintf(o.w, "%s (expires %s)\n", v.Message, v.ExpiresAt.Local().Format(time.DateTime))
	case HealthResult:
		_, _ = fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case ScanResult:
		o.printScanResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Participant response type (matches API)
type Participant struct {
	RegistrationID string     `json:"registration_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Attended       bool       `json:"attended"`
	Timestamp      *time.Time `json:"timestamp"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CheckInResult response type
type CheckInResult struct {
	Message     string      `json:"message"`
	Participant Participant `json:"participant"`
}

// Stats response type
type Stats struct {
	Total     int `json:"total"`
	CheckedIn int `json:"checkedIn"`
}

// MessageResult response type
type MessageResult struct {
	Message string `json:"message"`
}

// SessionResult response type
type SessionResult struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// ScanResult is one line of scan output
type ScanResult struct {
	Code      string `json:"code"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

func (o *Output) printParticipant(p Participant) {
	_, _ = fmt.Fprintf(o.w, "Participant: %s <%s>\n", p.Name, p.Email)
	_, _ = fmt.Fprintf(o.w, "Registration ID: %s\n", p.RegistrationID)
	if p.Attended && p.Timestamp != nil {
		_, _ = fmt.Fprintf(o.w, "Checked in: %s\n", p.Timestamp.Local().Format(time.DateTime))
	} else {
		_, _ = fmt.Fprintln(o.w, "Checked in: no")
	}
}

func (o *Output) printParticipants(ps []Participant) {
	if len(ps) == 0 {
		_, _ = fmt.Fprintln(o.w, "No participants registered")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tEMAIL\tREGISTRATION ID\tCHECKED IN")
	for _, p := range ps {
		checked := "-"
		if p.Attended && p.Timestamp != nil {
			checked = p.Timestamp.Local().Format(time.DateTime)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Email, p.RegistrationID, checked)
	}
	_ = tw.Flush()
}

func (o *Output) printStats(s Stats) {
	_, _ = fmt.Fprintf(o.w, "Registered: %d\n", s.Total)
	_, _ = fmt.Fprintf(o.w, "Checked in: %d\n", s.CheckedIn)
	if s.Total > 0 {
		_, _ = fmt.Fprintf(o.w, "Attendance: %.0f%%\n", float64(s.CheckedIn)*100/float64(s.Total))
	}
}

func (o *Output) printScanResult(r ScanResult) {
	switch r.Status {
	case scanStatusOK:
		_, _ = fmt.Fprintf(o.w, "✓ %s\n", r.Message)
	case scanStatusDebounced:
		_, _ = fmt.Fprintf(o.w, "· %s ignored (scanned too soon)\n", r.Code)
	default:
		if r.Code == "" {
			_, _ = fmt.Fprintf(o.w, "✗ %s\n", r.Message)
			return
		}
		_, _ = fmt.Fprintf(o.w, "✗ %s: %s\n", r.Code, r.Message)
	}
}
