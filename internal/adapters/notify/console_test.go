package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

func TestConsoleNotify(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	require.NoError(t, c.Notify(context.Background(), "something happened"))
	assert.Contains(t, buf.String(), "ALERT: something happened")
}

func TestConsoleReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	require.NoError(t, c.Report(context.Background(), nil))
	assert.Contains(t, buf.String(), "no opportunities found")
}

func TestConsoleReportTable(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	opps := []domain.Opportunity{
		{
			Kind:         domain.KindPriceMovement,
			Description:  "Price moved: Will X happen?",
			ExpectedEdge: 12.0,
			Confidence:   domain.ConfidenceHigh,
			Executed:     true,
		},
		{
			Kind:         domain.KindNewListing,
			Description:  "New base token: TOK",
			ExpectedEdge: 42.5,
			Confidence:   domain.ConfidenceLow,
		},
	}
	require.NoError(t, c.Report(context.Background(), opps))

	out := buf.String()
	assert.Contains(t, out, "2 opportunities")
	assert.Contains(t, out, "price_movement")
	assert.Contains(t, out, "new_listing")
	assert.Contains(t, out, "✓")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "this is...", truncate("this is a long description", 10))
}

func TestMultiSwallowsChannelErrors(t *testing.T) {
	var buf bytes.Buffer
	m := NewMulti(failingNotifier{}, NewConsoleWriter(&buf))

	assert.NoError(t, m.Notify(context.Background(), "hello"))
	assert.Contains(t, buf.String(), "hello", "un canal roto no bloquea al resto")
}

type failingNotifier struct{}

func (failingNotifier) Notify(_ context.Context, _ string) error {
	return assert.AnError
}
