package http

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/catalog"
	"github.com/handcraftedhaven/storefront/internal/dashboard"
	"github.com/handcraftedhaven/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const recentOrdersLimit = 50

var pageFuncs = template.FuncMap{
	"money":       func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"statusClass": dashboard.StatusClass,
	"date":        func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"shortID": func(s string) string {
		if len(s) > 8 {
			return s[:8]
		}
		return s
	},
}

// page names map to templates/<name>.html, each rendered inside layout.html.
var pageNames = []string{"marketplace", "product", "dashboard", "notfound"}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").
			Funcs(pageFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return pages, nil
}

// Pages serves the HTML marketplace and seller dashboard.
type Pages struct {
	catalog   catalog.Catalog
	reviews   ReviewManager
	orders    OrderManager
	templates map[string]*template.Template
	logger    *zap.Logger
	timeout   time.Duration
}

func NewPages(c catalog.Catalog, reviews ReviewManager, orders OrderManager, logger *zap.Logger, timeout time.Duration) (*Pages, error) {
	templates, err := parsePages()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pages{
		catalog:   c,
		reviews:   reviews,
		orders:    orders,
		templates: templates,
		logger:    logger.Named("pages"),
		timeout:   timeout,
	}, nil
}

type layoutData struct {
	Title string
}

type marketplaceData struct {
	layoutData
	Categories []string
	Selected   string
	Products   []*domain.Product
}

type productData struct {
	layoutData
	Product *domain.Product
	Reviews []*domain.Review
	Average decimal.Decimal
}

type dashboardData struct {
	layoutData
	Sidebar     []dashboard.NavItem
	Nav         *dashboard.Navigator
	Placeholder *dashboard.Placeholder
	Orders      []*domain.OrderDetail
	Order       *domain.OrderDetail
	Actions     []domain.OrderAction
	StatusNote  string
	Error       string
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := p.templates[name].Execute(&buf, data); err != nil {
		p.logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (p *Pages) notFound(w http.ResponseWriter, what string) {
	p.render(w, http.StatusNotFound, "notfound", struct {
		layoutData
		What string
	}{layoutData{Title: "Not Found"}, what})
}

func (p *Pages) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := errorStatus(err)
	p.logger.Error("page request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", getRequestID(r.Context())),
		zap.Error(err))
	http.Error(w, http.StatusText(status), status)
}

// GET /marketplace[?category=]
func (p *Pages) Marketplace(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	category := r.URL.Query().Get("category")
	products, err := p.catalog.ListProducts(ctx, category)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	categories, err := p.catalog.ListCategories(ctx)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	p.render(w, http.StatusOK, "marketplace", marketplaceData{
		layoutData: layoutData{Title: "Marketplace"},
		Categories: categories,
		Selected:   category,
		Products:   products,
	})
}

// GET /marketplace/{id}
func (p *Pages) Product(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	product, err := p.catalog.GetProduct(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		p.notFound(w, "product")
		return
	}
	if err != nil {
		p.fail(w, r, err)
		return
	}

	summary, err := p.reviews.ForListing(ctx, product.ID)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	p.render(w, http.StatusOK, "product", productData{
		layoutData: layoutData{Title: product.Name},
		Product:    product,
		Reviews:    summary.Reviews,
		Average:    summary.Average,
	})
}

// GET /dashboard[?view=]
func (p *Pages) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	nav := dashboard.NewNavigator()
	if v := r.URL.Query().Get("view"); v != "" {
		nav.Navigate(dashboard.View(v))
	}

	data := dashboardData{
		layoutData: layoutData{Title: nav.Title()},
		Sidebar:    dashboard.Sidebar,
		Nav:        nav,
	}
	if ph, ok := nav.Placeholder(); ok {
		data.Placeholder = &ph
	} else {
		orders, err := p.orders.ListRecent(ctx, recentOrdersLimit)
		if err != nil {
			p.fail(w, r, err)
			return
		}
		data.Orders = orders
	}

	p.render(w, http.StatusOK, "dashboard", data)
}

// GET /dashboard/orders/{order_id}
func (p *Pages) OrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	model, nav, ok := p.loadOrder(ctx, w, r)
	if !ok {
		return
	}
	p.render(w, http.StatusOK, "dashboard", detailData(nav, model))
}

// POST /dashboard/orders/{order_id}/actions/{action}
// Requires the same X-Buyer-ID identity as the JSON API.
func (p *Pages) OrderAction(w http.ResponseWriter, r *http.Request) {
	actorID := getBuyerIDFromContext(r.Context())
	if actorID == uuid.Nil {
		http.Error(w, "missing buyer authentication", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	action, err := domain.ParseOrderAction(chi.URLParam(r, "action"))
	if err != nil {
		http.Error(w, "unknown order action", http.StatusBadRequest)
		return
	}

	model, nav, ok := p.loadOrder(ctx, w, r)
	if !ok {
		return
	}

	if err := model.Apply(ctx, p.orders, action); err != nil {
		p.logger.Warn("order action failed",
			zap.Stringer("order_id", model.Detail().ID),
			zap.Stringer("actor_id", actorID),
			zap.String("action", string(action)),
			zap.Error(err))
		data := detailData(nav, model)
		data.Error = "Could not " + action.Label() + ": " + userMessage(err)
		status, _ := errorStatus(err)
		p.render(w, status, "dashboard", data)
		return
	}

	http.Redirect(w, r, "/dashboard/orders/"+model.Detail().ID.String(), http.StatusSeeOther)
}

func (p *Pages) loadOrder(ctx context.Context, w http.ResponseWriter, r *http.Request) (*dashboard.OrderDetailModel, *dashboard.Navigator, bool) {
	orderID, ok := parseOrderID(r)
	if !ok {
		p.notFound(w, "order")
		return nil, nil, false
	}
	detail, err := p.orders.GetOrder(ctx, orderID)
	if err != nil {
		if status, _ := errorStatus(err); status == http.StatusNotFound {
			p.notFound(w, "order")
			return nil, nil, false
		}
		p.fail(w, r, err)
		return nil, nil, false
	}

	nav := dashboard.NewNavigator()
	nav.ViewDetails(orderID)
	return dashboard.NewOrderDetailModel(detail), nav, true
}

func detailData(nav *dashboard.Navigator, model *dashboard.OrderDetailModel) dashboardData {
	detail := model.Detail()
	return dashboardData{
		layoutData: layoutData{Title: nav.Title()},
		Sidebar:    dashboard.Sidebar,
		Nav:        nav,
		Order:      &detail,
		Actions:    model.Actions(),
		StatusNote: model.StatusNote(),
	}
}

// userMessage hides internal failures from the page.
func userMessage(err error) string {
	if status, _ := errorStatus(err); status >= http.StatusInternalServerError {
		return "the order could not be updated, try again later"
	}
	return err.Error()
}
