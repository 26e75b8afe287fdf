package reconcile

// StageState is the outcome of one processing stage.
type StageState string

const (
	StageOK      StageState = "ok"
	StageSkipped StageState = "skipped"
	StageFailed  StageState = "failed"
)

// StageResult records how a stage ended and why.
type StageResult struct {
	State  StageState
	Reason string
	Err    error
}

func stageOK() StageResult { return StageResult{State: StageOK} }

func stageSkipped(reason string) StageResult {
	return StageResult{State: StageSkipped, Reason: reason}
}

func stageFailed(reason string, err error) StageResult {
	return StageResult{State: StageFailed, Reason: reason, Err: err}
}

// Source says where the customer id was found.
type Source string

const (
	SourceNone      Source = ""
	SourceCheckout  Source = "checkout"
	SourceReference Source = "reference"
	SourceEmail     Source = "email"
)

// Level summarizes how much of a notification was resolved.
type Level string

const (
	LevelNone    Level = "none"
	LevelPartial Level = "partial"
	LevelFull    Level = "full"
)

// Resolution is everything the resolver chain discovered. Any field may be
// empty.
type Resolution struct {
	CustomerID       string
	PlanID           string
	PlanName         string
	SaleID           string
	DiscountCodeID   string
	DiscountCodeName string
	TotalValue       string
	CustomerSource   Source
}

// Level reports whether both customer and plan were found, one of them, or
// neither.
func (r Resolution) Level() Level {
	switch {
	case r.CustomerID != "" && r.PlanID != "":
		return LevelFull
	case r.CustomerID != "" || r.PlanID != "":
		return LevelPartial
	}
	return LevelNone
}

// Outcome aggregates the write stages for one notification.
type Outcome struct {
	Update StageResult
	Sale   StageResult
	SaleID string
}

// CustomerUpdated reports whether the customer record was written.
func (o Outcome) CustomerUpdated() bool { return o.Update.State == StageOK }

// SaleCreated reports whether a new sale record was created.
func (o Outcome) SaleCreated() bool { return o.Sale.State == StageOK }

// Ack is the body returned to the gateway. It is always sent with HTTP 200
// once the notification passed validation.
type Ack struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message,omitempty"`
	Error         string  `json:"error,omitempty"`
	RequestID     string  `json:"requestId,omitempty"`
	TransactionID string  `json:"transactionId"`
	Reference     string  `json:"reference"`
	Status        string  `json:"status"`
	VentaID       *string `json:"ventaId"`
	MusaID        *string `json:"musaId"`
	MusaUpdated   bool    `json:"musaUpdated"`
	VentaCreated  bool    `json:"ventaCreated"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
