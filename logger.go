// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"fmt"
	"io/ioutil"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger used by the validator, storage and tools.
type Logger interface {
	SetToDebug()
	Debug(msg string, keyValues ...interface{})
	Info(msg string, keyValues ...interface{})
	Error(msg string, keyValues ...interface{})
}

// Logrus implements Logger
type Logrus struct {
	log *logrus.Logger
}

// NewLogrus creates a logrus backed logger
func NewLogrus() Logger {
	l := &Logrus{
		log: logrus.New(),
	}
	l.log.Formatter = &logrus.TextFormatter{
		FullTimestamp: true,
	}
	l.log.SetLevel(logrus.InfoLevel)
	return l
}

// NewLogrusNoOp creates a logrus backed logger that logs nothing
func NewLogrusNoOp() Logger {
	l := &Logrus{
		log: logrus.New(),
	}
	l.log.Formatter = &logrus.JSONFormatter{}
	l.log.SetLevel(logrus.PanicLevel)
	l.log.Out = ioutil.Discard
	return l
}

// SetToDebug sets the logger to DEBUG level
func (l *Logrus) SetToDebug() {
	l.log.SetLevel(logrus.DebugLevel)
}

// Debug logs a message at level Debug
func (l *Logrus) Debug(msg string, keyValues ...interface{}) {
	l.log.WithFields(toFields(keyValues)).Debug(msg)
}

// Info logs a message at level Info
func (l *Logrus) Info(msg string, keyValues ...interface{}) {
	l.log.WithFields(toFields(keyValues)).Info(msg)
}

// Error logs a message at level Error
func (l *Logrus) Error(msg string, keyValues ...interface{}) {
	l.log.WithFields(toFields(keyValues)).Error(msg)
}

// pairs keys with values. dangling and non-string keys are logged under "!BADKEY"
func toFields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("!BADKEY(%v)", kv[i])
		}
		if i+1 < len(kv) {
			f[key] = kv[i+1]
		} else {
			f["!BADKEY"] = key
		}
	}
	return f
}
