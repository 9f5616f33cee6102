// Package logging provides the structured logging helper shared by the atomgo
// packages. Every helper carries the "function" and "package" fields so that
// log lines from the interop layer can be filtered by component.
package logging

import "github.com/sirupsen/logrus"

// Helper accumulates logrus fields for a single function.
type Helper struct {
	fields logrus.Fields
}

// New creates a helper tagged with the given package and function names.
func New(pkg, function string) *Helper {
	return &Helper{
		fields: logrus.Fields{
			"function": function,
			"package":  pkg,
		},
	}
}

// WithField adds a custom field.
func (l *Helper) WithField(key string, value interface{}) *Helper {
	l.fields[key] = value
	return l
}

// WithFields adds multiple custom fields.
func (l *Helper) WithFields(fields logrus.Fields) *Helper {
	for k, v := range fields {
		l.fields[k] = v
	}
	return l
}

// WithError records err together with the operation that produced it.
func (l *Helper) WithError(err error, operation string) *Helper {
	if err != nil {
		l.fields["error"] = err.Error()
	}
	l.fields["operation"] = operation
	return l
}

// Debug logs a debug message.
func (l *Helper) Debug(message string) {
	logrus.WithFields(l.fields).Debug(message)
}

// Info logs an info message.
func (l *Helper) Info(message string) {
	logrus.WithFields(l.fields).Info(message)
}

// Warn logs a warning message.
func (l *Helper) Warn(message string) {
	logrus.WithFields(l.fields).Warn(message)
}

// Error logs an error message.
func (l *Helper) Error(message string) {
	logrus.WithFields(l.fields).Error(message)
}

// SetLevel parses a logrus level name and applies it globally. Unknown names
// leave the level untouched and return the parse error.
func SetLevel(name string) error {
	if name == "" {
		return nil
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	return nil
}
