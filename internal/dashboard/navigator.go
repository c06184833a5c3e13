// Package dashboard holds the seller dashboard's view state: which sidebar
// section is shown, which order is selected, and the order-detail model that
// applies status changes optimistically.
package dashboard

import (
	"github.com/google/uuid"
)

type View string

const (
	ViewOverview View = "overview"
	ViewProducts View = "products"
	ViewOrders   View = "orders"
	ViewReviews  View = "reviews"
	ViewProfile  View = "profile"
	ViewBilling  View = "billing"
	ViewSettings View = "settings"
	// ViewDetails is reached from the order list, never from the sidebar.
	ViewDetails View = "details"
)

type NavItem struct {
	Name string
	View View
}

var Sidebar = []NavItem{
	{Name: "Overview", View: ViewOverview},
	{Name: "Products", View: ViewProducts},
	{Name: "Orders", View: ViewOrders},
	{Name: "Reviews", View: ViewReviews},
	{Name: "Profile", View: ViewProfile},
	{Name: "Billing", View: ViewBilling},
	{Name: "Settings", View: ViewSettings},
}

type Placeholder struct {
	Heading     string
	Description string
}

var placeholders = map[View]Placeholder{
	ViewOverview: {"Dashboard Overview", "A summary of key metrics and key performance indicators will be displayed here."},
	ViewProducts: {"Product Listings", "Manage your current inventory, add new artisanal products, and update stock levels here."},
	ViewReviews:  {"Reviews & Ratings", "View and moderate customer feedback and ratings for your products."},
	ViewProfile:  {"User Profile", "Manage your personal account details, contact information, and security preferences."},
	ViewBilling:  {"Billing & Payments", "View your subscription details, payment history, and manage invoicing information."},
	ViewSettings: {"System Settings", "Configure application preferences, integrations, and default fulfillment options."},
}

var welcome = Placeholder{"Welcome!", "Select an option from the sidebar to begin managing your Handcrafted Haven."}

var titles = map[View]string{
	ViewOrders:   "Orders & Fulfillment",
	ViewDetails:  "Orders & Fulfillment",
	ViewOverview: "System Overview",
	ViewProducts: "Product Listings",
	ViewReviews:  "Reviews & Ratings",
	ViewProfile:  "User Profile",
	ViewBilling:  "Billing & Payments",
	ViewSettings: "User Settings",
}

// Navigator tracks the current view and the selected order.
type Navigator struct {
	current  View
	selected uuid.UUID
}

func NewNavigator() *Navigator {
	return &Navigator{current: ViewOverview}
}

// Navigate switches to a sidebar view and clears any selected order.
func (n *Navigator) Navigate(v View) {
	n.current = v
	n.selected = uuid.Nil
}

// ViewDetails selects an order and shows its detail view.
func (n *Navigator) ViewDetails(orderID uuid.UUID) {
	n.current = ViewDetails
	n.selected = orderID
}

// Back returns from the detail view to the order list.
func (n *Navigator) Back() {
	n.Navigate(ViewOrders)
}

func (n *Navigator) Current() View {
	return n.current
}

func (n *Navigator) Selected() (uuid.UUID, bool) {
	return n.selected, n.selected != uuid.Nil
}

// Content is the view whose body is rendered. A details view without a
// selected order falls back to the order list.
func (n *Navigator) Content() View {
	if n.current == ViewDetails && n.selected == uuid.Nil {
		return ViewOrders
	}
	return n.current
}

// IsActive reports whether a sidebar entry is highlighted. The detail view
// highlights Orders.
func (n *Navigator) IsActive(v View) bool {
	return v == n.current || (n.current == ViewDetails && v == ViewOrders)
}

func (n *Navigator) Title() string {
	if t, ok := titles[n.current]; ok {
		return t
	}
	return "Dashboard"
}

// Placeholder returns the static section for views without live content.
// Orders and details have no placeholder.
func (n *Navigator) Placeholder() (Placeholder, bool) {
	switch n.Content() {
	case ViewOrders, ViewDetails:
		return Placeholder{}, false
	}
	if p, ok := placeholders[n.current]; ok {
		return p, true
	}
	return welcome, true
}
