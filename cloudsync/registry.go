package cloudsync

import (
	"context"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// Document is one mapped ledger row ready for the remote store. Fields never
// include the compound key or synced_at; the upserter adds those.
type Document struct {
	LocalId uint
	Fields  bson.M
}

// entityDescriptor binds a ledger table to its remote collection, its
// mappers, and its queue eligibility. The registry of descriptors replaces
// per-table branching everywhere in the sync core.
type entityDescriptor struct {
	Table      string
	Collection string
	Queued     bool
	// LoadAll reads and maps every current row, children included.
	LoadAll func(ctx context.Context, db *gorm.DB) ([]Document, error)
	// LoadOne maps a single row for the realtime and drain paths.
	// Nil for bulk-only kinds.
	LoadOne func(ctx context.Context, db *gorm.DB, recordID uint) (Document, error)
}

func defaultRegistry() []*entityDescriptor {
	return []*entityDescriptor{
		{
			Table:      models.TableSales,
			Collection: "sales",
			Queued:     true,
			LoadAll:    loadSales,
			LoadOne:    loadOneSale,
		},
		{
			Table:      models.TableProducts,
			Collection: "products",
			Queued:     true,
			LoadAll:    loadProducts,
			LoadOne:    loadOneProduct,
		},
		{
			Table:      models.TableCustomers,
			Collection: "customers",
			Queued:     true,
			LoadAll:    loadCustomers,
			LoadOne:    loadOneCustomer,
		},
		{
			Table:      models.TableOrders,
			Collection: "orders",
			Queued:     true,
			LoadAll:    loadOrders,
			LoadOne:    loadOneOrder,
		},
		{
			Table:      models.TableExpenses,
			Collection: "expenses",
			Queued:     true,
			LoadAll:    loadExpenses,
			LoadOne:    loadOneExpense,
		},
		{
			Table:      models.TablePurchases,
			Collection: "purchases",
			Queued:     true,
			LoadAll:    loadPurchases,
			LoadOne:    loadOnePurchase,
		},
		{
			Table:      "raw_inventories",
			Collection: "raw_inventory",
			LoadAll:    loadRawInventory,
		},
		{
			Table:      "finished_inventories",
			Collection: "finished_inventory",
			LoadAll:    loadFinishedInventory,
		},
		{
			Table:      "users",
			Collection: "staff",
			LoadAll:    loadStaff,
		},
		{
			Table:      "settings",
			Collection: "settings",
			LoadAll:    loadSettings,
		},
	}
}

// mapping helpers: absent optional fields become explicit nulls, local text
// timestamps become structured BSON datetimes, money becomes plain numbers.

func strOrNil(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func idOrNil(v uint) interface{} {
	if v == 0 {
		return nil
	}
	return int64(v)
}

func timeOrNil(s string) interface{} {
	if t, ok := utils.ParseLocalTime(s); ok {
		return primitive.NewDateTimeFromTime(t)
	}
	return nil
}

func dec(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func boolOrFalse(b *bool) bool {
	return b != nil && *b
}

// --- sales ---

func mapSale(s models.Sale) Document {
	items := bson.A{}
	for _, it := range s.Items {
		items = append(items, bson.M{
			"product_id":   idOrNil(it.ProductId),
			"product_name": strOrNil(it.ProductName),
			"quantity":     dec(it.Quantity),
			"unit_price":   dec(it.UnitPrice),
			"discount":     dec(it.Discount),
			"line_total":   dec(it.LineTotal),
		})
	}
	payments := bson.A{}
	for _, p := range s.Payments {
		payments = append(payments, bson.M{
			"method":  strOrNil(p.Method),
			"amount":  dec(p.Amount),
			"status":  strOrNil(p.Status),
			"paid_at": timeOrNil(p.PaidAt),
		})
	}
	return Document{
		LocalId: s.ID,
		Fields: bson.M{
			"sale_number":     strOrNil(s.SaleNumber),
			"sale_date":       timeOrNil(s.SaleDate),
			"customer_id":     idOrNil(s.CustomerId),
			"customer_name":   strOrNil(s.CustomerName),
			"sub_total":       dec(s.SubTotal),
			"discount_amount": dec(s.DiscountAmount),
			"tax_amount":      dec(s.TaxAmount),
			"total_amount":    dec(s.TotalAmount),
			"sale_status":     strOrNil(s.SaleStatus),
			"notes":           strOrNil(s.Notes),
			"items":           items,
			"payments":        payments,
			"device_id":       strOrNil(s.DeviceId),
			"updated_at":      timeOrNil(s.UpdatedAt),
		},
	}
}

func loadSales(ctx context.Context, db *gorm.DB) ([]Document, error) {
	var sales []models.Sale
	if err := db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(sales))
	for _, s := range sales {
		docs = append(docs, mapSale(s))
	}
	return docs, nil
}

func loadOneSale(ctx context.Context, db *gorm.DB, recordID uint) (Document, error) {
	var sale models.Sale
	if err := db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Take(&sale, recordID).Error; err != nil {
		return Document{}, err
	}
	return mapSale(sale), nil
}

// --- products ---

func mapProduct(p models.Product) Document {
	return Document{
		LocalId: p.ID,
		Fields: bson.M{
			"name":           p.Name,
			"sku":            strOrNil(p.Sku),
			"barcode":        strOrNil(p.Barcode),
			"category":       strOrNil(p.Category),
			"unit":           strOrNil(p.Unit),
			"sales_price":    dec(p.SalesPrice),
			"purchase_price": dec(p.PurchasePrice),
			"is_active":      boolOrFalse(p.IsActive),
			"device_id":      strOrNil(p.DeviceId),
			"updated_at":     timeOrNil(p.UpdatedAt),
		},
	}
}

func loadProducts(ctx context.Context, db *gorm.DB) ([]Document, error) {
	var products []models.Product
	if err := db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(products))
	for _, p := range products {
		docs = append(docs, mapProduct(p))
	}
	return docs, nil
}

func loadOneProduct(ctx context.Context, db *gorm.DB, recordID uint) (Document, error) {
	var product models.Product
	if err := db.WithContext(ctx).Take(&product, recordID).Error; err != nil {
		return Document{}, err
	}
	return mapProduct(product), nil
}

// --- customers ---

func mapCustomer(c models.Customer) Document {
	return Document{
		LocalId: c.ID,
		Fields: bson.M{
			"name":       c.Name,
			"email":      strOrNil(c.Email),
			"phone":      strOrNil(c.Phone),
			"address":    strOrNil(c.Address),
			"notes":      strOrNil(c.Notes),
			"device_id":  strOrNil(c.DeviceId),
			"updated_at": timeOrNil(c.UpdatedAt),
		},
	}
}

func loadCustomers(ctx context.Context, db *gorm.DB) ([]Document, error) {
	var customers []models.Customer
	if err := db.WithContext(ctx).Find(&customers).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(customers))
	for _, c := range customers {
		docs = append(docs, mapCustomer(c))
	}
	return docs, nil
}

func loadOneCustomer(ctx context.Context, db *gorm.DB, recordID uint) (Document, error) {
	var customer models.Customer
	if err := db.WithContext(ctx).Take(&customer, recordID).Error; err != nil {
		return Document{}, err
	}
	return mapCustomer(customer), nil
}

// --- orders ---

func mapOrder(o models.Order) Document {
	return Document{
		LocalId: o.ID,
		Fields: bson.M{
			"order_number":  strOrNil(o.OrderNumber),
			"order_date":    timeOrNil(o.OrderDate),
			"customer_id":   idOrNil(o.CustomerId),
			"customer_name": strOrNil(o.CustomerName),
			"order_status":  strOrNil(o.OrderStatus),
			"total_amount":  dec(o.TotalAmount),
			"due_date":      timeOrNil(o.DueDate),
			"notes":         strOrNil(o.Notes),
			"device_id":     strOrNil(o.DeviceId),
			"updated_at":    timeOrNil(o.UpdatedAt),
		},
	}
}

func loadOrders(ctx context.Context, db *gorm.DB) ([]Document, error) {
	var orders []models.Order
	if err := db.WithContext(ctx).Find(&orders).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(orders))
	for _, o := range orders {
		docs = append(docs, mapOrder(o))
	}
	return docs, nil
}

func loadOneOrder(ctx context.Context, db *gorm.DB, recordID uint) (Document, error) {
	var order models.Order
	if err := db.WithContext(ctx).Take(&order, recordID).Error; err != nil {
		return Document{}, err
	}
	return mapOrder(order), nil
}

// --- expenses ---

func mapExpense(e models.Expense) Document {
	return Document{
		LocalId: e.ID,
		Fields: bson.M{
			"expense_date": timeOrNil(e.ExpenseDate),
			"category":     strOrNil(e.Category),
			"description":  strOrNil(e.Description),
			"amount":       dec(e.Amount),
			"paid_by":      strOrNil(e.PaidBy),
			"device_id":    strOrNil(e.DeviceId),
			"updated_at":   timeOrNil(e.UpdatedAt),
		},
	}
}

func loadExpenses(ctx context.Context, db *gorm.DB) ([]Document, error) {
	var expenses []models.Expense
	if err := db.WithContext(ctx).Find(&expenses).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(expenses))
	for _, e := range expenses {
		docs = append(docs, mapExpense(e))
	}
	return docs, nil
}

func loadOneExpense(ctx context.Context, db *gorm.DB, recordID uint) (Document, error) {
	var expense models.Expense
	if err := db.WithContext(ctx).Take(&expense, recordID).Error; err != nil {
		return Document{}, err
	}
	return mapExpense(expense), nil
}

// --- purchases ---

func mapPurchase(p models.Purchase, productNames map[uint]string) Document {
	items := bson.A{}
	for _, it := range p.Items {
		items = append(items, bson.M{
			"product_id":   idOrNil(it.ProductId),
			"product_name": strOrNil(productNames[it.ProductId]),
			"quantity":     dec(it.Quantity),
			"unit_cost":    dec(it.UnitCost),
			"line_total":   dec(it.LineTotal),
		})
	}
	return Document{
		LocalId: p.ID,
		Fields: bson.M{
			"purchase_number": strOrNil(p.PurchaseNumber),
			"purchase_date":   timeOrNil(p.PurchaseDate),
			"supplier_name":   strOrNil(p.SupplierName),
			"purchase_status": strOrNil(p.PurchaseStatus),
			"total_amount":    dec(p.TotalAmount),
			"notes":           strOrNil(p.Notes),
			"items":           items,
			"device_id":       strOrNil(p.DeviceId),
			"updated_at":      timeOrNil(p.UpdatedAt),
		},
	}
}

// productNamesFor recomputes the item-name denormalization from current
// ledger rows. Stale remote copies are overwritten, never patched.
func productNamesFor(ctx context.Context, db *gorm.DB, productIDs []uint) (map[uint]string, error) {
	names := map[uint]string{}
	if len(productIDs) == 0 {
		return names, nil
	}
	var products []models.Product
	if err := db.WithContext(ctx).
		Select("id", "name").
		Where("id IN ?", productIDs).
		Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}

func loadPurchases(ctx context.Context, db *gorm.DB) ([]Document, error) {
	var purchases []models.Purchase
	if err := db.WithContext(ctx).Preload("Items").Find(&purchases).Error; err != nil {
		return nil, err
	}
	var productIDs []uint
	for _, p := range purchases {
		for _, it := range p.Items {
			if it.ProductId != 0 {
				productIDs = append(productIDs, it.ProductId)
			}
		}
	}
	names, err := productNamesFor(ctx, db, productIDs)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(purchases))
	for _, p := range purchases {
		docs = append(docs, mapPurchase(p, names))
	}
	return docs, nil
}

func loadOnePurchase(ctx context.Context, db *gorm.DB, recordID uint) (Document, error) {
	var purchase models.Purchase
	if err := db.WithContext(ctx).Preload("Items").Take(&purchase, recordID).Error; err != nil {
		return Document{}, err
	}
	var productIDs []uint
	for _, it := range purchase.Items {
		if it.ProductId != 0 {
			productIDs = append(productIDs, it.ProductId)
		}
	}
	names, err := productNamesFor(ctx, db, productIDs)
	if err != nil {
		return Document{}, err
	}
	return mapPurchase(purchase, names), nil
}

// --- inventory ---

func loadRawInventory(ctx context.Context, db *gorm.DB) ([]Document, error) {
	var rows []models.RawInventory
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, Document{
			LocalId: r.ID,
			Fields: bson.M{
				"name":          r.Name,
				"unit":          strOrNil(r.Unit),
				"quantity":      dec(r.Quantity),
				"alert_qty":     dec(r.AlertQty),
				"cost_per_unit": dec(r.CostPerUnit),
				"updated_at":    timeOrNil(r.UpdatedAt),
			},
		})
	}
	return docs, nil
}

func loadFinishedInventory(ctx context.Context, db *gorm.DB) ([]Document, error) {
	var rows []models.FinishedInventory
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	var productIDs []uint
	for _, r := range rows {
		if r.ProductId != 0 {
			productIDs = append(productIDs, r.ProductId)
		}
	}
	names, err := productNamesFor(ctx, db, productIDs)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, Document{
			LocalId: r.ID,
			Fields: bson.M{
				"product_id":   idOrNil(r.ProductId),
				"product_name": strOrNil(names[r.ProductId]),
				"quantity":     dec(r.Quantity),
				"alert_qty":    dec(r.AlertQty),
				"updated_at":   timeOrNil(r.UpdatedAt),
			},
		})
	}
	return docs, nil
}

// --- staff snapshot ---

func loadStaff(ctx context.Context, db *gorm.DB) ([]Document, error) {
	var users []models.User
	if err := db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(users))
	for _, u := range users {
		docs = append(docs, Document{
			LocalId: u.ID,
			Fields: bson.M{
				"name":       u.Name,
				"username":   strOrNil(u.Username),
				"role":       strOrNil(u.Role),
				"phone":      strOrNil(u.Phone),
				"is_active":  boolOrFalse(u.IsActive),
				"updated_at": timeOrNil(u.UpdatedAt),
			},
		})
	}
	return docs, nil
}

// --- settings singleton ---

func loadSettings(ctx context.Context, db *gorm.DB) ([]Document, error) {
	var settings []models.Setting
	if err := db.WithContext(ctx).Limit(1).Find(&settings).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(settings))
	for _, s := range settings {
		docs = append(docs, Document{
			LocalId: s.ID,
			Fields: bson.M{
				"shop_name":      strOrNil(s.ShopName),
				"address":        strOrNil(s.Address),
				"phone":          strOrNil(s.Phone),
				"currency":       strOrNil(s.Currency),
				"tax_rate":       dec(s.TaxRate),
				"receipt_footer": strOrNil(s.ReceiptFooter),
				"updated_at":     timeOrNil(s.UpdatedAt),
			},
		})
	}
	return docs, nil
}
