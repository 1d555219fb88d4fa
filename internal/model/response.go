package model

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// QueryResult carries the outcome of executing a generated statement against
// a project's database: raw rows plus the result column names, in order.
type QueryResult struct {
	Fields []string                 `json:"fields"`
	Rows   []map[string]interface{} `json:"rows"`
}
