package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"procurement-agent/internal/conversation"
	"procurement-agent/internal/core"

	"github.com/shopspring/decimal"
)

// Callbacks is the surface exposed to the chat/display layer. Each callback
// fires after the corresponding mutation has been committed to the groups.
// Nil callbacks are skipped.
type Callbacks struct {
	OnProductsAdded func(created []CreatedProduct)
	OnStockUpdate   func(resolved []core.StockAdjustment)
	OnConfirmOrder  func(orderID string)
	OnCancel        func()
}

// ConfirmOrderRequest carries the caller identity and delivery/payment
// metadata for the final order submission.
type ConfirmOrderRequest struct {
	CreatedBy       string `json:"created_by"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
	PaymentMethod   string `json:"payment_method,omitempty"`
}

// Coordinator sequences the side-effecting remote operations for one
// workflow session. A single in-flight flag guards all mutations, so remote
// calls never overlap and classification always runs against the most
// recently committed groups. On failure the workflow stays in its current
// sub-stage; the operator retries the same operation or cancels.
type Coordinator struct {
	mu         sync.Mutex
	inFlight   bool
	state      State
	analysisTS int64 // timestamp of the conversation entry carrying the file analysis

	extractor ExtractionGateway
	inventory InventoryGateway
	orders    OrderGateway
	log       *conversation.Log
	logger    *slog.Logger
	callbacks Callbacks
}

// NewCoordinator builds a coordinator starting at idle.
func NewCoordinator(
	extractor ExtractionGateway,
	inventory InventoryGateway,
	orders OrderGateway,
	log *conversation.Log,
	logger *slog.Logger,
	callbacks Callbacks,
) *Coordinator {
	return &Coordinator{
		extractor: extractor,
		inventory: inventory,
		orders:    orders,
		log:       log,
		logger:    logger,
		callbacks: callbacks,
		state:     NewState(),
	}
}

// State returns the current workflow state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// GroupsView is the grouped rendering of the classified items handed to the
// display layer for stage-specific forms.
type GroupsView struct {
	NewProducts       []core.LineItem `json:"newProducts"`
	InsufficientStock []core.LineItem `json:"insufficientStock"`
	ReadyToProcess    []core.LineItem `json:"readyToProcess"`
}

// Snapshot is the display-layer view of the workflow.
type Snapshot struct {
	Stage      Stage                  `json:"stage"`
	Step       Step                   `json:"currentStep,omitempty"`
	OrderID    string                 `json:"orderId,omitempty"`
	LastError  string                 `json:"error,omitempty"`
	Metadata   *core.DocumentMetadata `json:"metadata,omitempty"`
	Groups     *GroupsView            `json:"groupedItems,omitempty"`
	Financials *core.FinancialSummary `json:"financials,omitempty"`
	Status     *core.StatusFlags      `json:"status,omitempty"`
}

// Snapshot returns the display view of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Stage:     c.state.Stage,
		Step:      c.state.Step,
		OrderID:   c.state.OrderID,
		LastError: c.state.LastError,
	}
	if r := c.state.Result; r != nil {
		meta := r.Metadata
		fin := r.Financials
		status := r.Status
		snap.Metadata = &meta
		snap.Financials = &fin
		snap.Status = &status
		snap.Groups = &GroupsView{
			NewProducts:       r.Items.NewProducts(),
			InsufficientStock: r.Items.InsufficientStock(),
			ReadyToProcess:    r.Items.ReadyToProcess(),
		}
	}
	return snap
}

// StartDocument runs one document through extraction, validation and
// classification, leaving the machine in the processing stage with the first
// sub-step selected. Calling it again from the error stage retries the whole
// analysis.
func (c *Coordinator) StartDocument(ctx context.Context, fileName, content string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	c.mu.Lock()
	if !c.apply(StartRequested{}) {
		stage := c.state.Stage
		c.mu.Unlock()
		return fmt.Errorf("cannot start a new document while the workflow is %s", stage)
	}
	c.apply(DocumentReceived{})
	c.mu.Unlock()

	c.log.Append(ctx, conversation.NewEntry(conversation.EntryProgress,
		fmt.Sprintf("Processing %s...", fileName)))

	raw, err := c.extractor.AnalyzeDocument(ctx, fileName, content)
	if err != nil {
		c.fail(ctx, fmt.Sprintf("Document analysis failed: %v", err), IsCritical(err))
		return err
	}

	if err := core.ValidateAnalysisResult(raw); err != nil {
		c.fail(ctx, fmt.Sprintf("Document analysis is unusable: %v", err), false)
		return err
	}

	items, err := raw.LineItems()
	if err != nil {
		c.fail(ctx, fmt.Sprintf("Document analysis is unusable: %v", err), false)
		return err
	}

	result := &core.AnalysisResult{
		Metadata: metadataFrom(raw, fileName, len(items)),
		Status:   statusFrom(raw),
	}
	c.mu.Lock()
	c.apply(ExtractionSucceeded{Result: result})
	c.mu.Unlock()

	groups, err := core.Classify(ctx, items, c.inventory)
	if err != nil {
		c.fail(ctx, fmt.Sprintf("Catalog lookup failed: %v", err), IsCritical(err))
		return err
	}

	c.mu.Lock()
	result.Items = groups
	result.RefreshFinancials()
	c.apply(ClassificationCompleted{})
	step := c.state.Step
	c.mu.Unlock()

	entry := conversation.NewEntry(conversation.EntryBot, fmt.Sprintf(
		"Analyzed %s: %d items (%d new, %d short on stock, %d ready).",
		fileName, groups.Len(), groups.CountNew(), groups.CountInsufficient(), groups.CountReady()))
	entry.Analysis = &conversation.FileAnalysis{FileName: fileName, ItemCount: groups.Len()}
	c.log.Append(ctx, entry)

	c.mu.Lock()
	c.analysisTS = entry.Timestamp
	c.mu.Unlock()

	c.logger.Info("document classified",
		"file", fileName, "items", groups.Len(), "step", string(step))
	return nil
}

// AddProducts creates catalog entries for the submitted new-product forms
// and promotes the matching items into the ready group. Products are always
// created with zero stock and status "active".
func (c *Coordinator) AddProducts(ctx context.Context, entries []core.NewProductEntry) ([]CreatedProduct, error) {
	if err := validateProductEntries(entries); err != nil {
		return nil, err
	}
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	if err := c.requireProcessing(); err != nil {
		return nil, err
	}

	records := make([]NewProductRecord, len(entries))
	for i, e := range entries {
		// Validation already proved these parse.
		price, _ := decimal.NewFromString(e.Price)
		cost, _ := decimal.NewFromString(e.Cost)
		records[i] = NewProductRecord{
			ProductName:  e.ProductName,
			Price:        price,
			Cost:         cost,
			InitialStock: 0,
			Status:       "active",
		}
	}

	created, err := c.inventory.CreateProducts(ctx, records)
	if err != nil {
		return nil, c.mutationFailed(ctx, fmt.Sprintf("Creating products failed: %v", err), err)
	}

	c.mu.Lock()
	result := c.state.Result
	for _, cp := range created {
		if resolveErr := result.Items.ResolveNewProduct(cp.ProductName, cp.SKU, cp.Stock); resolveErr != nil {
			c.logger.Warn("created product did not match a pending item",
				"product", cp.ProductName, "sku", cp.SKU, "error", resolveErr)
		}
	}
	c.mu.Unlock()

	c.commitGroups(ctx, result)

	c.log.Append(ctx, conversation.NewEntry(conversation.EntryBot,
		fmt.Sprintf("Created %d product(s). Stock starts at zero until received.", len(created))))

	if c.callbacks.OnProductsAdded != nil {
		c.callbacks.OnProductsAdded(created)
	}
	return created, nil
}

// AdjustStock resolves the insufficient-stock items. Stock raises are
// submitted to the inventory collaborator and cross-checked against the live
// stock lookup before the items are promoted; order-quantity reductions are
// local and need no remote write.
func (c *Coordinator) AdjustStock(ctx context.Context, adjustments []core.StockAdjustment) error {
	if err := validateAdjustments(adjustments); err != nil {
		return err
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if err := c.requireProcessing(); err != nil {
		return err
	}

	var records []StockAdjustmentRecord
	for _, adj := range adjustments {
		if adj.NewStockLevel != nil {
			records = append(records, StockAdjustmentRecord{SKU: adj.SKU, NewStockLevel: *adj.NewStockLevel})
		}
	}

	if len(records) > 0 {
		if err := c.inventory.AdjustStock(ctx, records); err != nil {
			return c.mutationFailed(ctx, fmt.Sprintf("Updating stock failed: %v", err), err)
		}
		// Cross-check each raised level against the live lookup before
		// promoting anything; a write the collaborator accepted but did not
		// apply must not produce a ready item it cannot cover.
		for _, rec := range records {
			level, err := c.inventory.StockLevel(ctx, rec.SKU)
			if err != nil {
				return c.mutationFailed(ctx,
					fmt.Sprintf("Stock check for %s failed: %v", rec.SKU, err), err)
			}
			if level < rec.NewStockLevel {
				err := fmt.Errorf("stock for %s reads %d, expected %d", rec.SKU, level, rec.NewStockLevel)
				return c.mutationFailed(ctx,
					fmt.Sprintf("Stock update for %s has not taken effect: level is %d, expected %d",
						rec.SKU, level, rec.NewStockLevel), err)
			}
		}
	}

	c.mu.Lock()
	result := c.state.Result
	for _, adj := range adjustments {
		if resolveErr := result.Items.ResolveStockAdjustment(adj); resolveErr != nil {
			c.logger.Warn("stock adjustment did not match a pending item",
				"sku", adj.SKU, "error", resolveErr)
		}
	}
	c.mu.Unlock()

	c.commitGroups(ctx, result)

	c.log.Append(ctx, conversation.NewEntry(conversation.EntryBot,
		fmt.Sprintf("Resolved stock for %d item(s).", len(adjustments))))

	if c.callbacks.OnStockUpdate != nil {
		c.callbacks.OnStockUpdate(adjustments)
	}
	return nil
}

// ConfirmOrder submits the final order. It is only reachable once both the
// new-product and insufficient-stock groups are empty; the financials are
// recomputed from the ready group at submission time, never reused from a
// cached preview.
func (c *Coordinator) ConfirmOrder(ctx context.Context, req ConfirmOrderRequest) (string, error) {
	if err := c.begin(); err != nil {
		return "", err
	}
	defer c.end()

	c.mu.Lock()
	if c.state.Stage != StageProcessing || c.state.Result == nil {
		c.mu.Unlock()
		return "", ErrNoActiveWorkflow
	}
	result := c.state.Result
	if result.Items.CountNew() > 0 || result.Items.CountInsufficient() > 0 {
		c.mu.Unlock()
		return "", ErrItemsUnresolved
	}

	ready := result.Items.ReadyToProcess()
	orderReq := OrderRequest{
		CreatedBy:       req.CreatedBy,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Items:           make([]OrderItem, 0, len(ready)),
		Financials:      core.ComputeFinancials(ready),
	}
	for _, it := range ready {
		sku := ""
		if it.SKU != nil {
			sku = *it.SKU
		}
		orderReq.Items = append(orderReq.Items, OrderItem{SKU: sku, Quantity: it.Quantity, Price: it.Price})
	}
	analysisTS := c.analysisTS
	c.mu.Unlock()

	conf, err := c.orders.CreateOrder(ctx, orderReq)
	if err != nil {
		return "", c.mutationFailed(ctx, fmt.Sprintf("Order creation failed: %v", err), err)
	}

	c.mu.Lock()
	c.apply(OrderCreated{OrderID: conf.OrderID})
	result.Status.Completed = true
	result.Financials = orderReq.Financials
	c.mu.Unlock()

	if analysisTS != 0 {
		if markErr := c.log.MarkAnalysisCompleted(ctx, analysisTS); markErr != nil {
			c.logger.Warn("could not mark analysis entry completed", "error", markErr)
		}
	}
	c.log.Append(ctx, conversation.NewEntry(conversation.EntryBot,
		fmt.Sprintf("Purchase order %s created. Total %s (%d items).",
			conf.OrderID, orderReq.Financials.Total.StringFixed(2), len(orderReq.Items))))

	if c.callbacks.OnConfirmOrder != nil {
		c.callbacks.OnConfirmOrder(conf.OrderID)
	}
	c.logger.Info("order created", "order_id", conf.OrderID, "items", len(orderReq.Items))
	return conf.OrderID, nil
}

// Cancel discards the current cycle: the machine restarts at idle, the
// working analysis is dropped, and stale automation artifacts are cleared
// from the conversation while finished chat turns remain.
func (c *Coordinator) Cancel(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	c.mu.Lock()
	c.apply(Cancelled{})
	c.analysisTS = 0
	c.mu.Unlock()

	c.log.ClearAutomationArtifacts(ctx)

	if c.callbacks.OnCancel != nil {
		c.callbacks.OnCancel()
	}
	c.logger.Info("workflow cancelled")
	return nil
}

// ── internal ─────────────────────────────────────────────────────────────────

// begin claims the single in-flight slot.
func (c *Coordinator) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrOperationInFlight
	}
	c.inFlight = true
	return nil
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// commitGroups finishes a successful remediation step: the still-unresolved
// items are re-matched against the current catalog signals, financials are
// recomputed, and the sub-step is re-derived. Runs under the in-flight guard,
// so the re-match never races another mutation. A failed re-match keeps the
// last known signals; the committed resolution is never rolled back.
func (c *Coordinator) commitGroups(ctx context.Context, result *core.AnalysisResult) {
	c.mu.Lock()
	groups := result.Items
	c.mu.Unlock()

	regrouped, err := core.Reclassify(ctx, groups, c.inventory)

	c.mu.Lock()
	if err != nil {
		c.logger.Warn("re-classification kept last catalog signals", "error", err)
	} else {
		result.Items = regrouped
	}
	result.RefreshFinancials()
	c.apply(GroupsUpdated{})
	c.mu.Unlock()
}

// apply runs the reducer; rejected transitions are logged and dropped, never
// surfaced as failures. Caller holds c.mu.
func (c *Coordinator) apply(ev Event) bool {
	next, ok := Reduce(c.state, ev)
	if !ok {
		c.logger.Warn("transition rejected",
			"stage", string(c.state.Stage), "event", fmt.Sprintf("%T", ev))
		return false
	}
	c.state = next
	return true
}

func (c *Coordinator) requireProcessing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Stage != StageProcessing || c.state.Result == nil {
		return ErrNoActiveWorkflow
	}
	return nil
}

// fail escalates a stage failure and appends the operator-visible entry.
// Recoverable failures carry retry/cancel actions; critical ones abort.
func (c *Coordinator) fail(ctx context.Context, reason string, critical bool) {
	c.mu.Lock()
	c.apply(OperationFailed{Reason: reason, Critical: critical})
	c.mu.Unlock()

	entry := conversation.NewEntry(conversation.EntryBot, reason)
	if !critical {
		entry.Actions = conversation.RetryCancelActions()
	}
	c.log.Append(ctx, entry)
}

// mutationFailed records a recoverable remote failure without leaving the
// current sub-stage, unless the error is tagged critical.
func (c *Coordinator) mutationFailed(ctx context.Context, reason string, err error) error {
	if IsCritical(err) {
		c.fail(ctx, reason, true)
		return err
	}

	c.mu.Lock()
	c.apply(MutationFailed{Reason: reason})
	c.mu.Unlock()

	entry := conversation.NewEntry(conversation.EntryBot, reason)
	entry.Actions = conversation.RetryCancelActions()
	c.log.Append(ctx, entry)
	return err
}

func validateProductEntries(entries []core.NewProductEntry) error {
	var invalid []EntryErrors
	for i, e := range entries {
		if errs := core.ValidateNewProduct(e); len(errs) > 0 {
			invalid = append(invalid, EntryErrors{Index: i, Fields: errs})
		}
	}
	if len(invalid) > 0 {
		return &InvalidEntriesError{Entries: invalid}
	}
	return nil
}

func validateAdjustments(adjustments []core.StockAdjustment) error {
	var invalid []EntryErrors
	for i, adj := range adjustments {
		if errs := core.ValidateStockAdjustment(adj); len(errs) > 0 {
			invalid = append(invalid, EntryErrors{Index: i, Fields: errs})
		}
	}
	if len(invalid) > 0 {
		return &InvalidEntriesError{Entries: invalid}
	}
	return nil
}

// metadataFrom lifts the loose extraction metadata into the typed record.
func metadataFrom(raw *core.RawAnalysis, fileName string, itemCount int) core.DocumentMetadata {
	meta := core.DocumentMetadata{FileName: fileName, ExtractedItemCount: itemCount}
	if cur, ok := raw.Metadata["currency"].(string); ok {
		meta.Currency = cur
	}
	if total, ok := raw.Metadata["documentTotal"].(string); ok {
		if d, err := decimal.NewFromString(total); err == nil {
			meta.DocumentTotal = d
		}
	}
	return meta
}

func statusFrom(raw *core.RawAnalysis) core.StatusFlags {
	var flags core.StatusFlags
	if v, ok := raw.Status["completed"].(bool); ok {
		flags.Completed = v
	}
	if v, ok := raw.Status["hasErrors"].(bool); ok {
		flags.HasErrors = v
	}
	return flags
}
