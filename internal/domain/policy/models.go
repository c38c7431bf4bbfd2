package policy

// RetentionPolicy states how long one category of records may be kept and
// what happens once the window lapses. AutoDelete=false policies are
// reporting-only: the cleanup executor must never receive them on its
// delete path.
type RetentionPolicy struct {
	DataType         string `json:"dataType" yaml:"dataType"`
	Category         string `json:"category" yaml:"category"`
	RetentionDays    int    `json:"retentionDays" yaml:"retentionDays"`
	LegalBasis       string `json:"legalBasis" yaml:"legalBasis"`
	AutoDelete       bool   `json:"autoDelete" yaml:"autoDelete"`
	NotifyBeforeDays int    `json:"notifyBeforeDays" yaml:"notifyBeforeDays"`
	Description      string `json:"description" yaml:"description"`
}

// Patch carries a partial administrative update. Nil fields keep the prior
// value.
type Patch struct {
	Category         *string `json:"category"`
	RetentionDays    *int    `json:"retentionDays"`
	LegalBasis       *string `json:"legalBasis"`
	AutoDelete       *bool   `json:"autoDelete"`
	NotifyBeforeDays *int    `json:"notifyBeforeDays"`
	Description      *string `json:"description"`
}

const (
	DataTypeInactiveUserProfile = "inactive_user_profile"
	DataTypePageViewData        = "page_view_data"
	DataTypeExportRequests      = "export_requests"
	DataTypeConsentLogs         = "consent_logs"
	DataTypeBillingRecords      = "billing_records"
	DataTypeSystemLogs          = "system_logs"
	DataTypeNotificationRecords = "notification_records"
)

func Defaults() map[string]RetentionPolicy {
	return map[string]RetentionPolicy{
		DataTypeInactiveUserProfile: {
			DataType:         DataTypeInactiveUserProfile,
			Category:         "Inactive Accounts",
			RetentionDays:    730,
			LegalBasis:       "legitimate_interest",
			AutoDelete:       false,
			NotifyBeforeDays: 30,
			Description:      "Accounts with no activity for two years.",
		},
		DataTypePageViewData: {
			DataType:      DataTypePageViewData,
			Category:      "Usage Analytics",
			RetentionDays: 365,
			LegalBasis:    "consent",
			AutoDelete:    true,
			Description:   "Page view events including client ip and user agent.",
		},
		DataTypeExportRequests: {
			DataType:      DataTypeExportRequests,
			Category:      "Data Exports",
			RetentionDays: 90,
			LegalBasis:    "contract",
			AutoDelete:    true,
			Description:   "Completed data export artifacts.",
		},
		DataTypeConsentLogs: {
			DataType:      DataTypeConsentLogs,
			Category:      "Consent Records",
			RetentionDays: 2555,
			LegalBasis:    "legal_obligation",
			AutoDelete:    false,
			Description:   "Consent grant and withdrawal trail, kept seven years.",
		},
		DataTypeBillingRecords: {
			DataType:      DataTypeBillingRecords,
			Category:      "Billing",
			RetentionDays: 3650,
			LegalBasis:    "legal_obligation",
			AutoDelete:    false,
			Description:   "Invoices and subscription history, kept ten years.",
		},
		DataTypeSystemLogs: {
			DataType:      DataTypeSystemLogs,
			Category:      "System Logs",
			RetentionDays: 180,
			LegalBasis:    "legitimate_interest",
			AutoDelete:    true,
			Description:   "Application log records.",
		},
		DataTypeNotificationRecords: {
			DataType:      DataTypeNotificationRecords,
			Category:      "Notifications",
			RetentionDays: 365,
			LegalBasis:    "legitimate_interest",
			AutoDelete:    true,
			Description:   "Delivered in-app notification records.",
		},
	}
}
