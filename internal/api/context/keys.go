package context

type Key string

const (
	Claims    Key = "claims"
	User      Key = "user"
	Admin     Key = "admin"
	Params    Key = "params"
	RequestID Key = "request_id"
)
