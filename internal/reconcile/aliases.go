package reconcile

// Object and field names in the record store. The store's schema was built by
// hand across several deployments, so a number of fields exist under more than
// one spelling; those live in Aliases and are always tried in order.
const (
	CustomerObject = "Musa"
	PlanObject     = "Plan2"

	CustomerEmailField      = "Email"
	CustomerActivePlanField = "R74136898"

	SaleNameField     = "name"
	SaleCustomerField = "R73564711"
	SalePlanField     = "R73887654"
	SaleCreatedField  = "createdAt"

	PlanNameField = "name"
)

// Last-payment fields written onto the customer record.
const (
	FieldReference     = "Reference"
	FieldCustomerID    = "Musa_Id"
	FieldPlanID        = "Plan_Id"
	FieldPlanName      = "Plan_Name"
	FieldTimestamp     = "Timestamp"
	FieldStatus        = "Estatus"
	FieldCustomerEmail = "Customer_Email"
	FieldAmountInCents = "AmountInCents"
)

// Aliases lists every spelling a logical field may have, in priority order.
type Aliases struct {
	CustomerReference    []string
	CustomerDiscountID   []string
	CustomerDiscountName []string
	CustomerTotal        []string

	SaleObjects      []string
	SalePlan         []string
	SalePlanName     []string
	SaleDiscountID   []string
	SaleDiscountName []string
	SaleTotal        []string
	SaleUsageCounter []string
}

// DefaultAliases matches the schemas seen in production.
var DefaultAliases = Aliases{
	CustomerReference:    []string{"Refencia_wompi", "Referencia_wompi", "Reference_wompi", "referencia_wompi", "name"},
	CustomerDiscountID:   []string{"Codigo_Descuento_Id", "codigo_descuento_id"},
	CustomerDiscountName: []string{"Codigo_Descuento_Nombre", "Nombre_Codigo_Descuento"},
	CustomerTotal:        []string{"Valor_Total_Venta", "valor_total_venta"},

	SaleObjects:      []string{"Ventas", "Venta", "ventas"},
	SalePlan:         []string{SalePlanField, "planes"},
	SalePlanName:     []string{"Plan_Name", "plan_name", "Nombre_Plan"},
	SaleDiscountID:   []string{"R73885532", "Codigo_Descuento", "codigo_descuento"},
	SaleDiscountName: []string{"Codigo_Descuento_Nombre", "Nombre_Codigo_Descuento", "Codigo_Descuento_Name"},
	SaleTotal:        []string{"Valor_total", "valor_total", "ValorTotal", "Valor_Total", "valorTotal"},
	SaleUsageCounter: []string{"Consumidas_hoy", "consumidas_hoy", "ConsumidasHoy"},
}

// customerColumns is the select list used whenever a customer row is read:
// id, active plan, then every discount-id, discount-name and total spelling.
func (a Aliases) customerColumns() []string {
	cols := []string{"id", CustomerActivePlanField}
	cols = append(cols, a.CustomerDiscountID...)
	cols = append(cols, a.CustomerDiscountName...)
	cols = append(cols, a.CustomerTotal...)
	return cols
}

// Positions of the first spelling of each group inside customerColumns.
func (a Aliases) discountIDPos() int   { return 2 }
func (a Aliases) discountNamePos() int { return 2 + len(a.CustomerDiscountID) }
func (a Aliases) totalPos() int {
	return 2 + len(a.CustomerDiscountID) + len(a.CustomerDiscountName)
}

// saleColumns is the select list for sale rows: id, customer relation, plan.
func saleColumns() []string {
	return []string{"id", SaleCustomerField, SalePlanField}
}
