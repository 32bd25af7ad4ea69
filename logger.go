package gokeyset

import "log/slog"

// The pager is silent unless a logger is configured with WithLogger.
var _discardLogger = slog.New(slog.DiscardHandler)

func orderingAttr(orderings Orderings) slog.Attr {
	return slog.String("order", orderings.ToSQL())
}

func markerAttr(m Marker) slog.Attr {
	return slog.Group("marker",
		slog.Int("values", len(m.Values)),
		slog.Bool("backwards", m.Backwards),
	)
}
