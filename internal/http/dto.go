package http

import (
	"bytes"
	"math"
	"strings"
	"time"

	"cofre/internal/core"
	"cofre/internal/services"

	"github.com/shopspring/decimal"
)

// Amount is a major-unit money value on the wire. It decodes from a JSON
// number or string ("12.34" or "12,34") and always encodes as a number with
// two decimals.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	s := strings.Trim(string(b), `"`)
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.ErrInvalidAmount
	}
	a.Decimal = d
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

// Money converts to cents, rounding half away from zero.
func (a Amount) Money() (core.Money, error) {
	cents, err := core.ToCents(a.Decimal)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// OptionalAmount tells an absent field apart from an explicit null.
type OptionalAmount struct {
	Set   bool
	Null  bool
	Value Amount
}

func (o *OptionalAmount) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		return nil
	}
	return o.Value.UnmarshalJSON(b)
}

func amountOf(m core.Money) Amount {
	return Amount{Decimal: m.Major()}
}

func moneyPtr(a *Amount) (*core.Money, error) {
	if a == nil {
		return nil, nil
	}
	m, err := a.Money()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func moneyOrZero(a *Amount) (core.Money, error) {
	if a == nil {
		return core.Money{}, nil
	}
	return a.Money()
}

func percent(cur, target int64) float64 {
	if target <= 0 {
		return 0
	}
	p := float64(cur) * 100 / float64(target)
	return math.Round(math.Min(p, 100)*100) / 100
}

// Auth

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateMeRequest struct {
	Name string `json:"name"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

func newUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func newSessionResponse(s services.Session) sessionResponse {
	return sessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: newUserResponse(s.User)}
}

// Accounts

type accountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
}

type accountPatchRequest struct {
	Name     *string `json:"name"`
	Type     *string `json:"type"`
	Currency *string `json:"currency"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Balance   Amount    `json:"balance"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (req accountRequest) input() services.AccountInput {
	return services.AccountInput{
		Name:     sanitizeInput(req.Name),
		Type:     core.AccountType(strings.TrimSpace(req.Type)),
		Currency: req.Currency,
	}
}

func (req accountPatchRequest) patch() services.AccountPatch {
	p := services.AccountPatch{Name: sanitizePtr(req.Name), Currency: req.Currency}
	if req.Type != nil {
		t := core.AccountType(strings.TrimSpace(*req.Type))
		p.Type = &t
	}
	return p
}

func newAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   amountOf(a.Balance),
		Currency:  a.Currency,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func newAccountResponses(accounts []core.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountResponse(a))
	}
	return out
}

// Categories

type categoryRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

type categoryPatchRequest struct {
	Name  *string `json:"name"`
	Kind  *string `json:"kind"`
	Color *string `json:"color"`
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

func (req categoryRequest) input() services.CategoryInput {
	return services.CategoryInput{
		Name:  sanitizeInput(req.Name),
		Kind:  core.CategoryKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Color: strings.TrimSpace(req.Color),
	}
}

func (req categoryPatchRequest) patch() services.CategoryPatch {
	p := services.CategoryPatch{Name: sanitizePtr(req.Name), Color: req.Color}
	if req.Kind != nil {
		k := core.CategoryKind(strings.ToLower(strings.TrimSpace(*req.Kind)))
		p.Kind = &k
	}
	return p
}

func newCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Color: c.Color}
}

func newCategoryResponses(categories []core.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, newCategoryResponse(c))
	}
	return out
}

// Transactions

type transactionRequest struct {
	AccountID   string  `json:"account_id"`
	CategoryID  string  `json:"category_id"`
	Amount      *Amount `json:"amount"`
	Type        string  `json:"type"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	IsRecurring bool    `json:"is_recurring"`
	Recurrence  string  `json:"recurrence"`
}

type transactionPatchRequest struct {
	AccountID   *string `json:"account_id"`
	CategoryID  *string `json:"category_id"`
	Amount      *Amount `json:"amount"`
	Type        *string `json:"type"`
	Date        *string `json:"date"`
	Description *string `json:"description"`
	IsRecurring *bool   `json:"is_recurring"`
	Recurrence  *string `json:"recurrence"`
}

type transactionResponse struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	CategoryID  string    `json:"category_id,omitempty"`
	Amount      Amount    `json:"amount"`
	Type        string    `json:"type"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	IsRecurring bool      `json:"is_recurring"`
	Recurrence  string    `json:"recurrence,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (req transactionRequest) input() (services.TransactionInput, error) {
	amount, err := moneyOrZero(req.Amount)
	if err != nil {
		return services.TransactionInput{}, err
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      amount,
		Type:        core.TransactionType(strings.TrimSpace(req.Type)),
		Date:        date,
		Description: sanitizeInput(req.Description),
		IsRecurring: req.IsRecurring,
		Recurrence:  core.RepetitionTypes(strings.ToLower(strings.TrimSpace(req.Recurrence))),
	}, nil
}

func (req transactionPatchRequest) patch() (services.TransactionPatch, error) {
	amount, err := moneyPtr(req.Amount)
	if err != nil {
		return services.TransactionPatch{}, err
	}
	date, err := parseOptionalDatePtr(req.Date)
	if err != nil {
		return services.TransactionPatch{}, err
	}
	p := services.TransactionPatch{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      amount,
		Date:        date,
		Description: sanitizePtr(req.Description),
		IsRecurring: req.IsRecurring,
	}
	if req.Type != nil {
		t := core.TransactionType(strings.TrimSpace(*req.Type))
		p.Type = &t
	}
	if req.Recurrence != nil {
		r := core.RepetitionTypes(strings.ToLower(strings.TrimSpace(*req.Recurrence)))
		p.Recurrence = &r
	}
	return p, nil
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		Amount:      amountOf(t.Amount),
		Type:        string(t.Type),
		Date:        t.Date.String(),
		Description: t.Description,
		IsRecurring: t.IsRecurring,
		Recurrence:  string(t.Recurrence),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func newTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionResponse(t))
	}
	return out
}

// Goals

type goalRequest struct {
	Name         string  `json:"name"`
	Target       *Amount `json:"target_amount"`
	Current      *Amount `json:"current_amount"`
	StartDate    string  `json:"start_date"`
	TargetDate   string  `json:"target_date"`
	CategoryID   string  `json:"category_id"`
	AccountID    string  `json:"account_id"`
	SavingsBoxID string  `json:"savings_box_id"`
}

type goalPatchRequest struct {
	Name         *string `json:"name"`
	Target       *Amount `json:"target_amount"`
	Current      *Amount `json:"current_amount"`
	StartDate    *string `json:"start_date"`
	TargetDate   *string `json:"target_date"`
	CategoryID   *string `json:"category_id"`
	AccountID    *string `json:"account_id"`
	SavingsBoxID *string `json:"savings_box_id"`
}

type contributeRequest struct {
	ID     string  `json:"id"`
	Amount *Amount `json:"amount"`
}

type goalResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Target       Amount    `json:"target_amount"`
	Current      Amount    `json:"current_amount"`
	Remaining    Amount    `json:"remaining_amount"`
	Progress     float64   `json:"progress"`
	StartDate    string    `json:"start_date"`
	TargetDate   string    `json:"target_date,omitempty"`
	CategoryID   string    `json:"category_id,omitempty"`
	AccountID    string    `json:"account_id,omitempty"`
	SavingsBoxID string    `json:"savings_box_id,omitempty"`
	Completed    bool      `json:"is_completed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (req goalRequest) input() (services.GoalInput, error) {
	target, err := moneyOrZero(req.Target)
	if err != nil {
		return services.GoalInput{}, err
	}
	current, err := moneyOrZero(req.Current)
	if err != nil {
		return services.GoalInput{}, err
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return services.GoalInput{}, err
	}
	targetDate, err := parseOptionalDate(req.TargetDate)
	if err != nil {
		return services.GoalInput{}, err
	}
	return services.GoalInput{
		Name:         sanitizeInput(req.Name),
		Target:       target,
		Current:      current,
		StartDate:    start,
		TargetDate:   targetDate,
		CategoryID:   req.CategoryID,
		AccountID:    req.AccountID,
		SavingsBoxID: req.SavingsBoxID,
	}, nil
}

func (req goalPatchRequest) patch() (services.GoalPatch, error) {
	var p services.GoalPatch
	var err error
	if p.Target, err = moneyPtr(req.Target); err != nil {
		return services.GoalPatch{}, err
	}
	if p.Current, err = moneyPtr(req.Current); err != nil {
		return services.GoalPatch{}, err
	}
	if p.StartDate, err = parseOptionalDatePtr(req.StartDate); err != nil {
		return services.GoalPatch{}, err
	}
	if p.TargetDate, err = parseOptionalDatePtr(req.TargetDate); err != nil {
		return services.GoalPatch{}, err
	}
	p.Name = sanitizePtr(req.Name)
	p.CategoryID = req.CategoryID
	p.AccountID = req.AccountID
	p.SavingsBoxID = req.SavingsBoxID
	return p, nil
}

func newGoalResponse(g core.Goal) goalResponse {
	return goalResponse{
		ID:           g.ID,
		Name:         g.Name,
		Target:       amountOf(g.Target),
		Current:      amountOf(g.Current),
		Remaining:    amountOf(g.Remaining()),
		Progress:     percent(g.Current.Cents, g.Target.Cents),
		StartDate:    g.StartDate.String(),
		TargetDate:   g.TargetDate.String(),
		CategoryID:   g.CategoryID,
		AccountID:    g.AccountID,
		SavingsBoxID: g.SavingsBoxID,
		Completed:    g.Completed,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func newGoalResponses(goals []core.Goal) []goalResponse {
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalResponse(g))
	}
	return out
}

// Savings boxes

type boxRequest struct {
	Name    string  `json:"name"`
	Current *Amount `json:"current_amount"`
	Target  *Amount `json:"target_amount"`
	Color   string  `json:"color"`
	Icon    string  `json:"icon"`
}

// boxPatchRequest sends target_amount: null to remove the target.
type boxPatchRequest struct {
	Name    *string        `json:"name"`
	Current *Amount        `json:"current_amount"`
	Target  OptionalAmount `json:"target_amount"`
	Color   *string        `json:"color"`
	Icon    *string        `json:"icon"`
}

type amountRequest struct {
	Amount *Amount `json:"amount"`
}

type transferRequest struct {
	FromID string  `json:"from_id"`
	ToID   string  `json:"to_id"`
	Amount *Amount `json:"amount"`
}

type boxResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Current   Amount    `json:"current_amount"`
	Target    *Amount   `json:"target_amount,omitempty"`
	Progress  float64   `json:"progress"`
	Reached   bool      `json:"reached"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type transferResponse struct {
	From boxResponse `json:"from"`
	To   boxResponse `json:"to"`
}

type boxStatsResponse struct {
	TotalBoxes      int     `json:"total_boxes"`
	ActiveBoxes     int     `json:"active_boxes"`
	TotalAmount     Amount  `json:"total_amount"`
	LinkedToGoals   int     `json:"linked_to_goals"`
	Completed       int     `json:"completed"`
	AverageProgress float64 `json:"average_progress"`
}

func (req boxRequest) input() (services.BoxInput, error) {
	current, err := moneyOrZero(req.Current)
	if err != nil {
		return services.BoxInput{}, err
	}
	target, err := moneyPtr(req.Target)
	if err != nil {
		return services.BoxInput{}, err
	}
	return services.BoxInput{
		Name:    sanitizeInput(req.Name),
		Current: current,
		Target:  target,
		Color:   strings.TrimSpace(req.Color),
		Icon:    strings.TrimSpace(req.Icon),
	}, nil
}

func (req boxPatchRequest) patch() (services.BoxPatch, error) {
	current, err := moneyPtr(req.Current)
	if err != nil {
		return services.BoxPatch{}, err
	}
	var target *core.Money
	if req.Target.Set && !req.Target.Null {
		if target, err = moneyPtr(&req.Target.Value); err != nil {
			return services.BoxPatch{}, err
		}
	}
	return services.BoxPatch{
		Name:        sanitizePtr(req.Name),
		Current:     current,
		Target:      target,
		ClearTarget: req.Target.Set && req.Target.Null,
		Color:       req.Color,
		Icon:        req.Icon,
	}, nil
}

func newBoxResponse(b core.SavingsBox) boxResponse {
	resp := boxResponse{
		ID:        b.ID,
		Name:      b.Name,
		Current:   amountOf(b.Current),
		Progress:  float64(b.ProgressBasisPoints()) / 100,
		Reached:   b.Reached(),
		Color:     b.Color,
		Icon:      b.Icon,
		Active:    b.Active(),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.HasTarget() {
		t := amountOf(b.Target)
		resp.Target = &t
	}
	return resp
}

func newBoxResponses(boxes []core.SavingsBox) []boxResponse {
	out := make([]boxResponse, 0, len(boxes))
	for _, b := range boxes {
		out = append(out, newBoxResponse(b))
	}
	return out
}

func newBoxStatsResponse(s core.BoxStats) boxStatsResponse {
	return boxStatsResponse{
		TotalBoxes:      s.TotalBoxes,
		ActiveBoxes:     s.ActiveBoxes,
		TotalAmount:     amountOf(s.TotalAmount),
		LinkedToGoals:   s.LinkedToGoals,
		Completed:       s.Completed,
		AverageProgress: s.AverageProgress,
	}
}

// Dashboard

type futureResponse struct {
	Income  Amount `json:"income"`
	Expense Amount `json:"expense"`
}

type categoryAmountResponse struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Amount     Amount `json:"amount"`
}

type dashboardResponse struct {
	Year              int                      `json:"year"`
	Month             int                      `json:"month"`
	TotalBalance      Amount                   `json:"total_balance"`
	Accounts          []accountResponse        `json:"accounts"`
	Future            futureResponse           `json:"future"`
	MonthIncome       Amount                   `json:"month_income"`
	MonthExpense      Amount                   `json:"month_expense"`
	ExpenseByCategory []categoryAmountResponse `json:"expense_by_category"`
}

func newDashboardResponse(d services.Dashboard) dashboardResponse {
	byCategory := make([]categoryAmountResponse, 0, len(d.ExpenseByCategory))
	for _, c := range d.ExpenseByCategory {
		byCategory = append(byCategory, categoryAmountResponse{
			CategoryID: c.CategoryID,
			Name:       c.Name,
			Amount:     amountOf(c.Amount),
		})
	}
	return dashboardResponse{
		Year:         d.Year,
		Month:        int(d.Month),
		TotalBalance: amountOf(d.TotalBalance),
		Accounts:     newAccountResponses(d.Accounts),
		Future: futureResponse{
			Income:  amountOf(d.Future.Income),
			Expense: amountOf(d.Future.Expense),
		},
		MonthIncome:       amountOf(d.MonthIncome),
		MonthExpense:      amountOf(d.MonthExpense),
		ExpenseByCategory: byCategory,
	}
}

type deletedResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
