package dynamo

// DynamoDB attribute names used in expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldStatus    = "status"
	fieldReadAt    = "read_at"
	fieldUserID    = "user_id"
	fieldPlatform  = "platform"
	fieldUpdatedAt = "updated_at"
)
