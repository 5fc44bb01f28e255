package postgres

import "fmt"

// sortable builds the ORDER BY / LIMIT / OFFSET tail shared by the paged
// listing queries. Callers pass a whitelist mapping exposed field names to
// SQL expressions; anything outside the map falls back to the default key,
// so user-supplied orderBy values never reach the query as raw SQL.
type sortable struct {
	fields     map[string]string
	defaultKey string
}

func (s sortable) clause(orderBy, order string, limit, offset int) string {
	expr, ok := s.fields[orderBy]
	if !ok {
		expr = s.fields[s.defaultKey]
	}

	dir := "ASC"
	if order == "desc" {
		dir = "DESC"
	}

	return fmt.Sprintf(" ORDER BY %s %s LIMIT %d OFFSET %d", expr, dir, limit, offset)
}

var userSortable = sortable{
	defaultKey: "userID",
	fields: map[string]string{
		"userID":      "user_id",
		"username":    "username",
		"email":       "email",
		"balance":     "balance",
		"overallPerc": "overall_perc",
		"totalSales":  "total_sales",
		"banned":      "banned",
	},
}

var shareSortable = sortable{
	defaultKey: "issuerID",
	fields: map[string]string{
		"issuerID":         "issuer_id",
		"shortname":        "shortname",
		"currentprice":     "current_price",
		"marketcap":        "market_cap",
		"sharecount":       "share_count",
		"daychangepercent": "day_change_percent",
		"daychangeprice":   "day_change_price",
		"daypricehigh":     "day_price_high",
		"daypricelow":      "day_price_low",
		"dayvolume":        "day_volume",
	},
}

// Holdings listings expose two derived sort keys on top of the share and
// holding columns: net = profit - loss and value = currentprice * quantity.
var holdingSortable = sortable{
	defaultKey: "issuerID",
	fields: map[string]string{
		"issuerID":     "h.issuer_id",
		"shortname":    "s.shortname",
		"quantity":     "h.quantity",
		"profit":       "h.profit",
		"loss":         "h.loss",
		"currentprice": "s.current_price",
		"net":          "(h.profit - h.loss)",
		"value":        "(s.current_price * h.quantity)",
	},
}

var transactionSortable = sortable{
	defaultKey: "datetime",
	fields: map[string]string{
		"transID":       "trans_id",
		"datetime":      "datetime",
		"transtype":     "transtype",
		"feeval":        "feeval",
		"stocktransval": "stocktransval",
		"totaltransval": "totaltransval",
		"quantity":      "quantity",
	},
}
