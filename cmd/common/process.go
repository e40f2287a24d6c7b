// Package common contains shared functionality for command handlers
package common

import (
	"errors"
	"path/filepath"

	"hydrogen/pos-receipts/internal/container"
	"hydrogen/pos-receipts/internal/csvinput"
	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/session"
	"hydrogen/pos-receipts/internal/templates"
)

// ErrNoInput is returned when a command needs -i and none was given.
var ErrNoInput = errors.New("an input CSV file is required (use -i)")

// LoadFile selects templateID and loads the CSV at path into the container's
// session, validating it against the template.
func LoadFile(c *container.Container, path, templateID string) (*session.Session, templates.Definition, error) {
	if path == "" {
		return nil, templates.Definition{}, ErrNoInput
	}
	logger := c.GetLogger()
	cfg := c.GetConfig()

	table, err := csvinput.ReadFile(path, csvinput.Options{Delimiter: cfg.DelimiterRune()})
	if err != nil {
		return nil, templates.Definition{}, err
	}

	sess := c.GetSession()
	def, err := sess.SelectTemplate(templateID)
	if err != nil {
		return nil, def, err
	}
	if err := sess.Load(table); err != nil {
		return nil, def, err
	}

	logger.Info("Loaded transactions",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldTemplate, def.ID),
		logging.F(logging.FieldDelimiter, string(cfg.DelimiterRune())),
		logging.F(logging.FieldCount, table.Len()))
	return sess, def, nil
}

// OutputDir returns the directory artifacts are written to: the -o flag when
// set, otherwise the configured output directory.
func OutputDir(c *container.Container, flag string) string {
	if flag != "" {
		return filepath.Clean(flag)
	}
	return c.GetConfig().Output.Directory
}
