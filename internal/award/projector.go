package award

// Projection is the status the RFQ and its quotes should carry for a given
// set of active awards.
type Projection struct {
	RFQStatus          RFQStatus
	IsPartiallyAwarded bool
	CoveredLines       int
	TotalLines         int
	QuoteStatus        map[string]QuoteStatus
}

// Project derives RFQ and quote status from the active awards. It is a pure
// function: re-running it over the same inputs yields the same projection.
// Only open and awarded RFQs move between those two states; closed and
// cancelled RFQs keep their status and get the flag recomputed.
func Project(rfq RFQ, lines []RfqLine, awards []Award, quotes []Quote) Projection {
	covered := make(map[string]struct{}, len(lines))
	perQuote := make(map[string]int, len(quotes))
	known := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		known[l.ID] = struct{}{}
	}
	for _, a := range awards {
		if !a.IsActive() {
			continue
		}
		if _, ok := known[a.RfqLineID]; ok {
			covered[a.RfqLineID] = struct{}{}
		}
		perQuote[a.QuoteID]++
	}

	p := Projection{
		RFQStatus:    rfq.Status,
		CoveredLines: len(covered),
		TotalLines:   len(lines),
		QuoteStatus:  make(map[string]QuoteStatus, len(quotes)),
	}

	fullyCovered := p.TotalLines > 0 && p.CoveredLines == p.TotalLines
	p.IsPartiallyAwarded = p.CoveredLines > 0 && p.CoveredLines < p.TotalLines

	if rfq.Status == RFQOpen || rfq.Status == RFQAwarded {
		if fullyCovered {
			p.RFQStatus = RFQAwarded
		} else {
			p.RFQStatus = RFQOpen
		}
	}

	for _, q := range quotes {
		if !q.Status.projected() {
			continue
		}
		switch {
		case perQuote[q.ID] > 0:
			p.QuoteStatus[q.ID] = QuoteAwarded
		case p.RFQStatus == RFQAwarded:
			p.QuoteStatus[q.ID] = QuoteRejected
		default:
			p.QuoteStatus[q.ID] = QuoteSubmitted
		}
	}
	return p
}
