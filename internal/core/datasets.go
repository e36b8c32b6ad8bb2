package core

import "strings"

// DatasetKey identifies one of the managed datasets.
type DatasetKey string

const (
	DatasetProduct   DatasetKey = "product"
	DatasetECommerce DatasetKey = "ecommerce"
)

// Well-known field names.
const (
	FieldRetailer           = "RETAILER"
	FieldApprovalStatus     = "APPROVAL STATUS"
	FieldApplicableProducts = "APPLICABLE PRODUCTS"
	FieldProductCatalog     = "PRODUCT CATALOG"
	FieldDirectToCart       = "DIRECT TO CART SUPPORT"
	FieldSupportedOffering  = "SUPPORTED PRODUCT OFFERING"
)

// OtherOption is the form placeholder that asks for a custom status value.
const OtherOption = "Other"

// ApprovalStatusOptions are the choices offered for APPROVAL STATUS.
var ApprovalStatusOptions = []string{
	"Approved",
	"Not Approved",
	"Pending Approval",
	"Deactivated",
	"Offline",
}

// ECommerceStatusOptions are the choices offered for eCommerce status columns.
var ECommerceStatusOptions = []string{
	"Active",
	"Not Active",
	"Pending Onboarding",
	"Not Available",
	"Deactivated",
	"Offline",
	OtherOption,
}

// DatasetActions names the audit action recorded for each mutation.
type DatasetActions struct {
	Add    ActionType
	Update ActionType
	Delete ActionType
	Upload ActionType
}

// Dataset describes one managed collection: how rows are labelled, which
// rows survive ingestion, and which fields the edit form collects.
type Dataset struct {
	Key   DatasetKey
	Label string

	// Noun is the singular used in upload messages ("product catalog item").
	Noun string

	// DisplayField names the field copied into audit details.
	DisplayField string

	// Columns fixes the column order. When empty, columns are taken from the
	// first record in the collection.
	Columns []string

	// StatusColumns are rendered with a status indicator.
	StatusColumns []string

	// StatusFilterField enables the all/approved/deactivated/pending filter
	// on the named column. Empty disables filtering.
	StatusFilterField string

	FormFields []FieldSpec

	// Valid decides which ingested rows are kept.
	Valid func(Fields) bool

	Actions DatasetActions
}

// ProductCatalog is the product catalog feed.
var ProductCatalog = Dataset{
	Key:               DatasetProduct,
	Label:             "Product Catalog",
	Noun:              "product catalog item",
	DisplayField:      FieldRetailer,
	Columns:           []string{FieldRetailer, FieldApprovalStatus, FieldApplicableProducts},
	StatusColumns:     []string{FieldApprovalStatus},
	StatusFilterField: FieldApprovalStatus,
	FormFields: []FieldSpec{
		{Name: FieldRetailer, Label: "Retailer Name", Required: true, Trim: true},
		{Name: FieldApprovalStatus, Label: "Approval Status", Required: true, Options: ApprovalStatusOptions},
		{Name: FieldApplicableProducts, Label: "Applicable Products", Required: true, Trim: true, Multiline: true},
	},
	Valid: hasRetailer,
	Actions: DatasetActions{
		Add:    ActionProductAdd,
		Update: ActionProductUpdate,
		Delete: ActionProductDelete,
		Upload: ActionProductUpload,
	},
}

// ECommerce is the eCommerce status feed. Its columns are open and follow
// whatever the current data carries.
var ECommerce = Dataset{
	Key:           DatasetECommerce,
	Label:         "eCommerce",
	Noun:          "eCommerce item",
	DisplayField:  FieldRetailer,
	StatusColumns: []string{FieldProductCatalog, FieldDirectToCart},
	FormFields: []FieldSpec{
		{Name: FieldRetailer, Label: "Retailer Name", Required: true, Trim: true},
		{Name: FieldProductCatalog, Label: "Product Catalog Status", Required: true, Options: ECommerceStatusOptions},
		{Name: FieldDirectToCart, Label: "Direct to Cart Support Status", Required: true, Options: ECommerceStatusOptions},
		{Name: FieldSupportedOffering, Label: "Supported Product Offering", Multiline: true},
	},
	Valid: Fields.AnyNonBlank,
	Actions: DatasetActions{
		Add:    ActionECommerceAdd,
		Update: ActionECommerceUpdate,
		Delete: ActionECommerceDelete,
		Upload: ActionECommerceUpload,
	},
}

func hasRetailer(f Fields) bool {
	return strings.TrimSpace(f.String(FieldRetailer)) != ""
}

// IsStatusColumn reports whether name is rendered as a status.
func (d Dataset) IsStatusColumn(name string) bool {
	for _, c := range d.StatusColumns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// FormField returns the form spec for name.
func (d Dataset) FormField(name string) (FieldSpec, bool) {
	for _, fs := range d.FormFields {
		if fs.Name == name {
			return fs, true
		}
	}
	return FieldSpec{}, false
}

// ColumnLabel turns a field name into a column heading: underscores become
// spaces and each word is capitalized.
func ColumnLabel(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
