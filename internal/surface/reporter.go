package surface

import (
	"errors"
	"fmt"
	"log"
	"strconv"
)

// Status lines shown to the user.
const (
	StatusDrawing     = "Drawing"
	StatusFinished    = "Drawing finished"
	StatusRecognizing = "Recognizing"
)

// Recognized formats a successful recognizer answer.
func Recognized(label string) string {
	return "Recognized value: " + label
}

// ErrorStatus formats a failed request. HTTP failures show the status code,
// anything else shows the error text.
func ErrorStatus(err error) string {
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		return "Error: " + strconv.Itoa(coded.StatusCode())
	}
	return fmt.Sprintf("Error: %v", err)
}

// Reporter receives every status change of a surface.
type Reporter interface {
	Report(status string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(status string)

func (f ReporterFunc) Report(status string) { f(status) }

// LogReporter writes status lines to a diagnostic log instead of the UI.
type LogReporter struct {
	Logger *log.Logger // nil uses the standard logger
}

func (r LogReporter) Report(status string) {
	if r.Logger != nil {
		r.Logger.Printf("[PAD] %s", status)
		return
	}
	log.Printf("[PAD] %s", status)
}

// MultiReporter fans a status out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(status string) {
	for _, r := range m {
		if r != nil {
			r.Report(status)
		}
	}
}
