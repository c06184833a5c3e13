package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/domain"
	_ "github.com/lib/pq"
)

const defaultQueryTimeout = 5 * time.Second

type Repository struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewRepository(cred *Credentials, queryTimeout time.Duration) (*Repository, error) {
	db, err := sql.Open("postgres", cred.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if e2 := db.PingContext(ctx); e2 != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w: %w", ErrConnectionFailure, e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db, queryTimeout: queryTimeout}, nil
}

// DB exposes the pool for collaborators that run their own statements, such as
// the users-table reconciler.
func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.queryTimeout)
}

const buyerColumns = `id, email, password_hash, name, auth_provider, role, created_at`

func scanBuyer(row interface{ Scan(...any) error }) (*domain.Buyer, error) {
	var b domain.Buyer
	var role string
	if err := row.Scan(&b.ID, &b.Email, &b.PasswordHash, &b.Name, &b.AuthProvider, &role, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Role = domain.NormalizeRole(role)
	return &b, nil
}

func (r *Repository) GetBuyerByEmail(ctx context.Context, email string) (*domain.Buyer, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + buyerColumns + ` FROM buyers WHERE email = $1`

	buyer, err := scanBuyer(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("buyer %q: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, classify(ctx, "query buyer by email", err)
	}
	return buyer, nil
}

func (r *Repository) CreateBuyer(ctx context.Context, nb domain.NewBuyer) (*domain.Buyer, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO buyers (email, password_hash, name, auth_provider)
	          VALUES ($1, $2, $3, COALESCE(NULLIF($4, ''), 'credentials'))
	          RETURNING ` + buyerColumns

	buyer, err := scanBuyer(r.db.QueryRowContext(ctx, query,
		nb.Email,
		nb.PasswordHash,
		nb.Name,
		nb.AuthProvider))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("insert buyer returned no row: %w", ErrNotFound)
	}
	if err != nil {
		return nil, classify(ctx, "insert buyer", err)
	}
	return buyer, nil
}

const cartItemColumns = `id, buyer_id, description, listing_name, price, product_image, quantity, created_at`

func scanCartItem(row interface{ Scan(...any) error }) (*domain.CartItem, error) {
	var c domain.CartItem
	err := row.Scan(&c.ID, &c.BuyerID, &c.Description, &c.ListingName, &c.Price, &c.ProductImage, &c.Quantity, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) CreateCartItem(ctx context.Context, item domain.NewCartItem) (*domain.CartItem, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO cart_items (buyer_id, description, listing_name, price, product_image, quantity)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING ` + cartItemColumns

	created, err := scanCartItem(r.db.QueryRowContext(ctx, query,
		item.BuyerID,
		item.Description,
		item.ListingName,
		item.Price,
		item.ProductImage,
		item.Quantity))
	if err != nil {
		return nil, classify(ctx, "insert cart item", err)
	}
	return created, nil
}

// GetCartItem returns the buyer's oldest cart line.
func (r *Repository) GetCartItem(ctx context.Context, buyerID uuid.UUID) (*domain.CartItem, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + cartItemColumns + ` FROM cart_items
	          WHERE buyer_id = $1 ORDER BY created_at, id LIMIT 1`

	item, err := scanCartItem(r.db.QueryRowContext(ctx, query, buyerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cart item for buyer %s: %w", buyerID, ErrNotFound)
	}
	if err != nil {
		return nil, classify(ctx, "query cart item", err)
	}
	return item, nil
}

func (r *Repository) ListCartItems(ctx context.Context, buyerID uuid.UUID) ([]*domain.CartItem, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + cartItemColumns + ` FROM cart_items
	          WHERE buyer_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, classify(ctx, "query cart items", err)
	}
	defer rows.Close()

	items := make([]*domain.CartItem, 0)
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, "cart item row iteration", err)
	}
	return items, nil
}

const orderColumns = `id, buyer_id, total_amount, status, payment_method, delivery_address, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.BuyerID, &o.TotalAmount, &status, &o.PaymentMethod, &o.DeliveryAddress, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

// newOrderStatus checks the status an order is created with. Blank means
// Pending.
func newOrderStatus(s domain.OrderStatus) (domain.OrderStatus, error) {
	if s == "" {
		return domain.OrderStatusPending, nil
	}
	status, err := domain.ParseOrderStatus(string(s))
	if err != nil {
		return "", fmt.Errorf("insert order with status %q: %w", s, err)
	}
	return status, nil
}

func (r *Repository) CreateBuyerOrder(ctx context.Context, order domain.NewOrder) (*domain.Order, error) {
	status, err := newOrderStatus(order.Status)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO customer_orders (buyer_id, total_amount, status, payment_method, delivery_address)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING ` + orderColumns

	created, err := scanOrder(r.db.QueryRowContext(ctx, query,
		order.BuyerID,
		order.TotalAmount,
		string(status),
		order.PaymentMethod,
		order.DeliveryAddress))
	if err != nil {
		return nil, classify(ctx, "insert order", err)
	}
	return created, nil
}

func (r *Repository) CreateOrderItem(ctx context.Context, item domain.OrderItem) (*domain.OrderItem, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO order_items (order_id, listing_name, quantity, unit_price)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, order_id, listing_name, quantity, unit_price`

	var created domain.OrderItem
	err := r.db.QueryRowContext(ctx, query,
		item.OrderID,
		item.ListingName,
		item.Quantity,
		item.UnitPrice,
	).Scan(&created.ID, &created.OrderID, &created.ListingName, &created.Quantity, &created.UnitPrice)
	if err != nil {
		return nil, classify(ctx, "insert order item", err)
	}
	return &created, nil
}

// PlaceOrder inserts an order and its line items in one transaction.
func (r *Repository) PlaceOrder(ctx context.Context, order domain.NewOrder, items []domain.OrderItem) (*domain.Order, error) {
	status, err := newOrderStatus(order.Status)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(ctx, "begin place order", err)
	}
	defer func() { _ = tx.Rollback() }()

	created, err := scanOrder(tx.QueryRowContext(ctx,
		`INSERT INTO customer_orders (buyer_id, total_amount, status, payment_method, delivery_address)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+orderColumns,
		order.BuyerID, order.TotalAmount, string(status), order.PaymentMethod, order.DeliveryAddress))
	if err != nil {
		return nil, classify(ctx, "insert order", err)
	}

	for _, it := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, listing_name, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
			created.ID, it.ListingName, it.Quantity, it.UnitPrice)
		if err != nil {
			return nil, classify(ctx, "insert order item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(ctx, "commit place order", err)
	}
	return created, nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM customer_orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify(ctx, "query order by id", err)
	}
	return order, nil
}

func (r *Repository) ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM customer_orders
	          WHERE buyer_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, classify(ctx, "query orders by buyer", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, "order row iteration", err)
	}
	return orders, nil
}

const orderDetailQuery = `SELECT o.id, o.buyer_id, o.total_amount, o.status, o.payment_method, o.delivery_address,
	o.created_at, o.updated_at, b.name, b.email
	FROM customer_orders o JOIN buyers b ON b.id = o.buyer_id`

func scanOrderDetail(row interface{ Scan(...any) error }) (*domain.OrderDetail, error) {
	var d domain.OrderDetail
	var status string
	err := row.Scan(&d.ID, &d.BuyerID, &d.TotalAmount, &status, &d.PaymentMethod, &d.DeliveryAddress,
		&d.CreatedAt, &d.UpdatedAt, &d.CustomerName, &d.CustomerEmail)
	if err != nil {
		return nil, err
	}
	d.Status = domain.OrderStatus(status)
	return &d, nil
}

// ListOrderDetails returns the newest orders with their customer, without line items.
func (r *Repository) ListOrderDetails(ctx context.Context, limit int) ([]*domain.OrderDetail, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, orderDetailQuery+` ORDER BY o.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, classify(ctx, "query order details", err)
	}
	defer rows.Close()

	details := make([]*domain.OrderDetail, 0)
	for rows.Next() {
		d, err := scanOrderDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order detail row: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, "order detail row iteration", err)
	}
	return details, nil
}

func (r *Repository) GetOrderDetail(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	detail, err := scanOrderDetail(r.db.QueryRowContext(ctx, orderDetailQuery+` WHERE o.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify(ctx, "query order detail", err)
	}

	items, err := r.listOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Items = items
	return detail, nil
}

func (r *Repository) listOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `SELECT id, order_id, listing_name, quantity, unit_price
	          FROM order_items WHERE order_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, classify(ctx, "query order items", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ListingName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, "order item row iteration", err)
	}
	return items, nil
}

// UpdateOrderStatus moves an order from one status to another only if it is
// still in the expected status.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) (*domain.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `UPDATE customer_orders SET status = $3, updated_at = clock_timestamp()
	          WHERE id = $1 AND status = $2
	          RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, string(from), string(to)))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, classify(ctx, "update order status", err)
	}

	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM customer_orders WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify(ctx, "query order status", err)
	}
	return nil, fmt.Errorf("order %s is %s, expected %s: %w", id, current, from, ErrStatusConflict)
}

const reviewColumns = `id, listing_id, customer_id, rating, feedback, created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(&rv.ID, &rv.ListingID, &rv.CustomerID, &rv.Rating, &rv.Feedback, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// AddReview inserts a review or, when the customer already reviewed the
// listing, overwrites its rating, feedback and updated_at.
func (r *Repository) AddReview(ctx context.Context, listingID, customerID string, rating int, feedback string) (*domain.Review, error) {
	if err := domain.ValidateRating(rating); err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO reviews (listing_id, customer_id, rating, feedback, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, clock_timestamp(), clock_timestamp())
	          ON CONFLICT (listing_id, customer_id)
	          DO UPDATE SET
	             rating = EXCLUDED.rating,
	             feedback = EXCLUDED.feedback,
	             updated_at = clock_timestamp()
	          RETURNING ` + reviewColumns

	review, err := scanReview(r.db.QueryRowContext(ctx, query, listingID, customerID, rating, feedback))
	if err != nil {
		return nil, classify(ctx, "upsert review", err)
	}
	return review, nil
}

func (r *Repository) ListReviewsByListing(ctx context.Context, listingID string) ([]*domain.Review, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + reviewColumns + ` FROM reviews
	          WHERE listing_id = $1 ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, classify(ctx, "query reviews", err)
	}
	defer rows.Close()

	reviews := make([]*domain.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, "review row iteration", err)
	}
	return reviews, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
