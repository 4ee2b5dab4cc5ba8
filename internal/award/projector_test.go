package award

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func projLines(n int) []RfqLine {
	lines := make([]RfqLine, n)
	for i := range lines {
		lines[i] = RfqLine{ID: string(rune('a' + i)), Sequence: i + 1}
	}
	return lines
}

func TestProjectCoverage(t *testing.T) {
	lines := projLines(3)
	quotes := []Quote{
		{ID: "q1", Status: QuoteSubmitted},
		{ID: "q2", Status: QuoteSubmitted},
	}
	cases := []struct {
		name        string
		status      RFQStatus
		awards      []Award
		wantStatus  RFQStatus
		wantPartial bool
		wantQuotes  map[string]QuoteStatus
	}{
		{
			name:       "no awards",
			status:     RFQOpen,
			wantStatus: RFQOpen,
			wantQuotes: map[string]QuoteStatus{"q1": QuoteSubmitted, "q2": QuoteSubmitted},
		},
		{
			name:   "some lines covered",
			status: RFQOpen,
			awards: []Award{
				{RfqLineID: "a", QuoteID: "q1", Status: AwardActive},
			},
			wantStatus:  RFQOpen,
			wantPartial: true,
			wantQuotes:  map[string]QuoteStatus{"q1": QuoteAwarded, "q2": QuoteSubmitted},
		},
		{
			name:   "all lines covered",
			status: RFQOpen,
			awards: []Award{
				{RfqLineID: "a", QuoteID: "q1", Status: AwardActive},
				{RfqLineID: "b", QuoteID: "q1", Status: AwardActive},
				{RfqLineID: "c", QuoteID: "q1", Status: AwardActive},
			},
			wantStatus: RFQAwarded,
			wantQuotes: map[string]QuoteStatus{"q1": QuoteAwarded, "q2": QuoteRejected},
		},
		{
			name:   "cancelled awards do not count",
			status: RFQAwarded,
			awards: []Award{
				{RfqLineID: "a", QuoteID: "q1", Status: AwardCancelled},
				{RfqLineID: "b", QuoteID: "q2", Status: AwardActive},
			},
			wantStatus:  RFQOpen,
			wantPartial: true,
			wantQuotes:  map[string]QuoteStatus{"q1": QuoteSubmitted, "q2": QuoteAwarded},
		},
		{
			name:   "closed rfq keeps status",
			status: RFQClosed,
			awards: []Award{
				{RfqLineID: "a", QuoteID: "q1", Status: AwardActive},
				{RfqLineID: "b", QuoteID: "q1", Status: AwardActive},
				{RfqLineID: "c", QuoteID: "q2", Status: AwardActive},
			},
			wantStatus: RFQClosed,
			wantQuotes: map[string]QuoteStatus{"q1": QuoteAwarded, "q2": QuoteAwarded},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Project(RFQ{ID: "r", Status: tc.status}, lines, tc.awards, quotes)
			assert.Equal(t, tc.wantStatus, p.RFQStatus)
			assert.Equal(t, tc.wantPartial, p.IsPartiallyAwarded)
			assert.Equal(t, tc.wantQuotes, p.QuoteStatus)
		})
	}
}

func TestProjectSkipsInactiveQuotes(t *testing.T) {
	quotes := []Quote{
		{ID: "draft", Status: QuoteDraft},
		{ID: "gone", Status: QuoteWithdrawn},
	}
	p := Project(RFQ{Status: RFQOpen}, projLines(1), nil, quotes)
	assert.Empty(t, p.QuoteStatus)
}

func TestProjectIsIdempotent(t *testing.T) {
	lines := projLines(2)
	awards := []Award{{RfqLineID: "a", QuoteID: "q1", Status: AwardActive}}
	quotes := []Quote{{ID: "q1", Status: QuoteSubmitted}}

	first := Project(RFQ{Status: RFQOpen}, lines, awards, quotes)
	rfq := RFQ{Status: first.RFQStatus, IsPartiallyAwarded: first.IsPartiallyAwarded}
	quotes[0].Status = first.QuoteStatus["q1"]
	second := Project(rfq, lines, awards, quotes)

	assert.Equal(t, first, second)
}
