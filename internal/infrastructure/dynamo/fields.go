package dynamo

// DynamoDB attribute and index names shared across repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID         = "user_id"
	fieldPropertyID     = "property_id"
	fieldLandlordID     = "landlord_id"
	fieldRenterID       = "renter_id"
	fieldConversationID = "conversation_id"
	fieldStatus         = "status"
	fieldFeatured       = "featured"
	fieldIsRead         = "is_read"
	fieldRead           = "read"
	fieldReadAt         = "read_at"
	fieldUpdatedAt      = "updated_at"
	fieldCompletedAt    = "completed_at"
	fieldRole           = "role"
	fieldEnable         = "enable"
)

const (
	indexEmail         = "email-index"
	indexRole          = "role-index"
	indexLandlord      = "landlord_id-index"
	indexStatus        = "status-index"
	indexProperty      = "property_id-index"
	indexRenter        = "renter_id-index"
	indexUserCreatedAt = "user_id-created_at-index"
)
