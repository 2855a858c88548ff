package api

import "net/url"

// REST paths of the backend the stores consume.
const (
	PathLogin           = "/api/auth/login"
	PathRegister        = "/api/auth/register"
	PathVerify          = "/api/auth/verify"
	PathLogout          = "/api/auth/logout"
	PathUpdatePushToken = "/api/auth/update-token"
	PathUpdateName      = "/api/auth/update-name"

	PathTransactions      = "/api/transactions"
	PathSummaryCards      = "/api/transactions/summary/cards"
	PathSummaryTrends     = "/api/transactions/summary/trends"
	PathSummaryCategories = "/api/transactions/summary/categories"
)

// PathTransaction returns the path of a single transaction resource.
func PathTransaction(id string) string {
	return PathTransactions + "/" + url.PathEscape(id)
}

// PathTrends returns the trends path for an aggregation range.
func PathTrends(timeframe string) string {
	return PathSummaryTrends + "?range=" + url.QueryEscape(timeframe)
}
