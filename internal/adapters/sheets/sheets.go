package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"destiny_blue/internal/adapters/observability"
)

const tokenURL = "https://oauth2.googleapis.com/token"

// Logger appends rows to a spreadsheet range.
type Logger struct {
	svc     *gsheets.Service
	sheetID string
	rng     string
}

// New authenticates as a service account. The private key may carry
// literal "\n" sequences the way it is usually pasted into env vars.
func New(ctx context.Context, email, privateKey, sheetID, rng string) (*Logger, error) {
	if email == "" || privateKey == "" || sheetID == "" {
		return nil, errors.New("sheets: service account email, key and sheet id are required")
	}
	cfg := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(strings.ReplaceAll(privateKey, `\n`, "\n")),
		Scopes:     []string{gsheets.SpreadsheetsScope},
		TokenURL:   tokenURL,
	}
	return NewWithOptions(ctx, sheetID, rng, option.WithTokenSource(cfg.TokenSource(ctx)))
}

func NewWithOptions(ctx context.Context, sheetID, rng string, opts ...option.ClientOption) (*Logger, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: init service: %w", err)
	}
	if rng == "" {
		rng = "Sheet1!A1"
	}
	return &Logger{svc: svc, sheetID: sheetID, rng: rng}, nil
}

func (l *Logger) AppendRow(ctx context.Context, row []string) error {
	vals := make([]interface{}, len(row))
	for i, v := range row {
		vals[i] = v
	}
	start := time.Now()
	_, err := l.svc.Spreadsheets.Values.Append(l.sheetID, l.rng, &gsheets.ValueRange{Values: [][]interface{}{vals}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	code := 200
	if err != nil {
		code = 500
	}
	observability.ObserveExternal("sheets", "append", code, time.Since(start))
	if err != nil {
		return fmt.Errorf("sheets: append: %w", err)
	}
	return nil
}
