package tools

// Tool names
const (
	ListInvoices      = "list_invoices"
	GetInvoiceDetail  = "get_invoice_detail"
	GetInvoiceXML     = "get_invoice_xml"
	CreateInvoice     = "create_invoice"
	CancelInvoice     = "cancel_invoice"
	SearchInvoices    = "search_invoices"
	ValidateTaxNumber = "validate_tax_number"
)

// Tool is the advertised description of one callable tool
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

// Schema is the JSON-schema subset used for tool parameters
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Default     interface{}        `json:"default,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	Pattern     string             `json:"pattern,omitempty"`
}

func object(required []string, props map[string]*Schema) Schema {
	if props == nil {
		props = map[string]*Schema{}
	}
	return Schema{Type: "object", Properties: props, Required: required}
}

func str(description string) *Schema {
	return &Schema{Type: "string", Description: description}
}

func num(description string) *Schema {
	return &Schema{Type: "number", Description: description}
}

func bound(v float64) *float64 {
	return &v
}

const (
	datePattern = `^\d{4}-\d{2}-\d{2}$`
	taxPattern  = `^\d{10,11}$`
)

// definitions is the advertised tool list, in registration order
func definitions() []Tool {
	return []Tool{
		{
			Name: ListInvoices,
			Description: "List e-Fatura invoices from the Turkish GİB system, newest first. " +
				"Optionally filter by an inclusive issue date range.",
			InputSchema: object(nil, map[string]*Schema{
				"start_date": {Type: "string", Description: "Start date in YYYY-MM-DD format (optional)", Pattern: datePattern},
				"end_date":   {Type: "string", Description: "End date in YYYY-MM-DD format (optional)", Pattern: datePattern},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of invoices to return (default: 10, max: 1000)",
					Default:     10,
					Minimum:     bound(1),
					Maximum:     bound(1000),
				},
			}),
		},
		{
			Name:        GetInvoiceDetail,
			Description: "Get detailed information for a specific e-Fatura invoice. Requires an invoice_id obtained from list_invoices.",
			InputSchema: object([]string{"invoice_id"}, map[string]*Schema{
				"invoice_id": str("Invoice ID (ETTN) or invoice number"),
			}),
		},
		{
			Name:        GetInvoiceXML,
			Description: "Get the raw UBL-TR XML (or HTML view) of an e-Fatura invoice.",
			InputSchema: object([]string{"invoice_id"}, map[string]*Schema{
				"invoice_id": str("Invoice ID to get XML for"),
			}),
		},
		{
			Name:        CreateInvoice,
			Description: "Create a new e-Fatura invoice in the GİB system. Returns the created invoice ID.",
			InputSchema: object(
				[]string{"invoice_number", "issue_date", "supplier_vkn", "supplier_name",
					"customer_vkn", "customer_name", "items", "total_amount"},
				map[string]*Schema{
					"invoice_number": str("Unique invoice number"),
					"issue_date":     {Type: "string", Description: "Invoice issue date (YYYY-MM-DD)", Pattern: datePattern},
					"supplier_vkn":   {Type: "string", Description: "Supplier tax number (VKN)", Pattern: taxPattern},
					"supplier_name":  str("Supplier company name"),
					"customer_vkn":   {Type: "string", Description: "Customer tax number (VKN/TCKN)", Pattern: taxPattern},
					"customer_name":  str("Customer name or company name"),
					"items": {
						Type:        "array",
						Description: "Invoice line items",
						Items: &Schema{
							Type:     "object",
							Required: []string{"description", "quantity", "unit_price"},
							Properties: map[string]*Schema{
								"description": str("Goods or service"),
								"quantity":    num("Quantity, greater than zero"),
								"unit_price":  num("Unit price, zero or more"),
								"total":       num("Line total, must equal quantity × unit_price (optional)"),
							},
						},
					},
					"total_amount": num("Total invoice amount, must equal the sum of line totals"),
					"currency":     {Type: "string", Description: "Currency code (default: TRY)", Default: "TRY"},
				}),
		},
		{
			Name:        CancelInvoice,
			Description: "Cancel an existing e-Fatura invoice. Requires invoice_id and a cancellation reason.",
			InputSchema: object([]string{"invoice_id", "reason"}, map[string]*Schema{
				"invoice_id": str("Invoice ID to cancel"),
				"reason":     str("Reason for cancellation"),
			}),
		},
		{
			Name:        SearchInvoices,
			Description: "Search e-Fatura invoices by customer, supplier, amount range or status. All filters are combined.",
			InputSchema: object(nil, map[string]*Schema{
				"customer_name": str("Customer name contains (case-insensitive, optional)"),
				"supplier_name": str("Supplier name contains (case-insensitive, optional)"),
				"min_amount":    num("Minimum invoice amount, inclusive (optional)"),
				"max_amount":    num("Maximum invoice amount, inclusive (optional)"),
				"status": {
					Type:        "string",
					Description: "Invoice status (optional)",
					Enum:        []string{"approved", "pending", "cancelled"},
				},
			}),
		},
		{
			Name:        ValidateTaxNumber,
			Description: "Validate a Turkish tax number: VKN (10 digits) for companies, TCKN (11 digits) for individuals.",
			InputSchema: object([]string{"tax_number"}, map[string]*Schema{
				"tax_number": str("Tax number to validate (10 or 11 digits)"),
			}),
		},
	}
}
