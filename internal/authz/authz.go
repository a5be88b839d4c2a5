// Package authz derives which portal features a session may see from the
// resource codes granted to the user.
//
// A feature is visible when the user holds at least one code of its
// allow-list.  Invisible features are hidden, not disabled: routes answer
// as if they did not exist.
package authz

import "strings"

// Permission is a resource code granted by the identity platform.
type Permission string

const (
	PermRegistrations   Permission = "cadastros-portal-compras"
	PermSuppliers       Permission = "fornecedores-portal-compras"
	PermProducts        Permission = "produtos-portal-compras"
	PermCostCenters     Permission = "centro-custo-portal-compras"
	PermPurchaseRequest Permission = "solicitacao-compra-portal-compras"
	PermPurchaseOrder   Permission = "pedido-compra-portal-compras"
	PermApprovals       Permission = "aprovacoes-portal-compras"
	PermReports         Permission = "relatorios-portal-compras"
	PermSettings        Permission = "configuracoes-portal-compras"
	PermUsers           Permission = "usuarios-portal-compras"
)

// Feature is a menu group of the portal.
type Feature string

const (
	FeatureRegistrations   Feature = "registrations"
	FeatureStockRequest    Feature = "stock-request"
	FeaturePurchaseRequest Feature = "purchase-request"
	FeatureApprovals       Feature = "approvals"
	FeatureReports         Feature = "reports"
	FeatureSettings        Feature = "settings"
)

// features lists every feature in menu order.
var features = []Feature{
	FeatureRegistrations,
	FeatureStockRequest,
	FeaturePurchaseRequest,
	FeatureApprovals,
	FeatureReports,
	FeatureSettings,
}

// allowLists maps each feature to the codes that reveal it.  Stock requests
// and purchase requests are both revealed by PermPurchaseRequest; the stock
// screen never got a code of its own.
var allowLists = map[Feature][]Permission{
	FeatureRegistrations:   {PermRegistrations, PermSuppliers, PermProducts, PermCostCenters},
	FeatureStockRequest:    {PermPurchaseRequest},
	FeaturePurchaseRequest: {PermPurchaseRequest, PermPurchaseOrder},
	FeatureApprovals:       {PermApprovals},
	FeatureReports:         {PermReports},
	FeatureSettings:        {PermSettings, PermUsers},
}

// resourceFeatures maps the CRUD resources proxied by the gateway onto the
// feature that owns their screens.
var resourceFeatures = map[string]Feature{
	"suppliers":         FeatureRegistrations,
	"products":          FeatureRegistrations,
	"cost-centers":      FeatureRegistrations,
	"categories":        FeatureRegistrations,
	"units":             FeatureRegistrations,
	"wallets":           FeatureRegistrations,
	"stock-requests":    FeatureStockRequest,
	"purchase-requests": FeaturePurchaseRequest,
	"purchase-orders":   FeaturePurchaseRequest,
	"quotations":        FeaturePurchaseRequest,
	"reports":           FeatureReports,
	"report-templates":  FeatureReports,
	"head-offices":      FeatureSettings,
	"request-types":     FeatureSettings,
	"users":             FeatureSettings,
}

// AllFeatures returns every feature in menu order.
func AllFeatures() []Feature { return append([]Feature(nil), features...) }

// Codes returns the allow-list of a feature.
func Codes(f Feature) []Permission { return append([]Permission(nil), allowLists[f]...) }

// ResourceFeature reports which feature owns a proxied resource.
func ResourceFeature(resource string) (Feature, bool) {
	f, ok := resourceFeatures[strings.ToLower(resource)]
	return f, ok
}

// Gate is the visibility computed once from a session's resources.
type Gate struct {
	visible map[Feature]bool
}

// NewGate intersects resources with every allow-list.  Order and duplicates
// in resources do not matter.
func NewGate(resources []string) Gate {
	held := make(map[Permission]bool, len(resources))
	for _, r := range resources {
		held[Permission(r)] = true
	}
	g := Gate{visible: make(map[Feature]bool, len(features))}
	for _, f := range features {
		for _, code := range allowLists[f] {
			if held[code] {
				g.visible[f] = true
				break
			}
		}
	}
	return g
}

// Visible reports whether f may be shown.
func (g Gate) Visible(f Feature) bool { return g.visible[f] }

// Features returns the visible features in menu order.
func (g Gate) Features() []Feature {
	out := make([]Feature, 0, len(g.visible))
	for _, f := range features {
		if g.visible[f] {
			out = append(out, f)
		}
	}
	return out
}

// Menu returns the visibility of every feature, keyed by feature name.
func (g Gate) Menu() map[Feature]bool {
	out := make(map[Feature]bool, len(features))
	for _, f := range features {
		out[f] = g.visible[f]
	}
	return out
}
