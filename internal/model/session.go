package model

// TypeAuth tells how the session was established.
type TypeAuth string

const (
    TypeAuthNone     TypeAuth = ""
    TypeAuthLocal    TypeAuth = "local"    // username and password against the portal API
    TypeAuthPlatform TypeAuth = "platform" // token issued by the external platform
)

// Reference is a lightweight pointer to another record (cost center,
// wallet...).  Only the identifying fields travel with the session.
type Reference struct {
    ID   int64  `json:"id"`
    Code string `json:"code,omitempty"`
    Name string `json:"name,omitempty"`
}

// BranchOffice is a unit below a head office.  HeadOffice carries the
// defaults of the head office it belongs to.
type BranchOffice struct {
    ID         int64       `json:"id"`
    Code       string      `json:"code,omitempty"`
    Name       string      `json:"name"`
    HeadOffice *HeadOffice `json:"headOffice,omitempty"`
}

// HeadOffice is a tenant/company unit a session can be scoped to.
//
// Fields:
//  DefaultReportTemplate* – report templates preselected on the reports screen.
//  Default*RequestTypeID  – request types preselected on new requests.
type HeadOffice struct {
    ID                            int64          `json:"id"`
    Code                          string         `json:"code"`
    Name                          string         `json:"name"`
    BranchesOffices               []BranchOffice `json:"branchesOffices,omitempty"`
    DefaultReportTemplatePurchase string         `json:"defaultReportTemplatePurchase,omitempty"`
    DefaultReportTemplateStock    string         `json:"defaultReportTemplateStock,omitempty"`
    DefaultPurchaseRequestTypeID  *int64         `json:"defaultPurchaseRequestTypeId,omitempty"`
    DefaultStockRequestTypeID     *int64         `json:"defaultStockRequestTypeId,omitempty"`
}

// SessionRecord is the authenticated principal for one browser session.
// Logged is true exactly when AccessToken is non-empty; Resources drives
// every menu and route the user can see.
type SessionRecord struct {
    AccessToken  string        `json:"accessToken"`
    RefreshToken string        `json:"refreshToken"`
    ExpiresIn    int64         `json:"expiresIn"` // seconds
    Username     string        `json:"username"`
    Name         string        `json:"name"`
    Email        string        `json:"email"`
    TenantDomain string        `json:"tenantDomain"`
    Logged       bool          `json:"logged"`
    TypeAuth     TypeAuth      `json:"typeAuth"`
    CostCenter   *Reference    `json:"costCenter"`
    Wallet       *Reference    `json:"wallet"`
    BranchOffice *BranchOffice `json:"branchOffice"`
    Resources    []string      `json:"resources"`
    ErpURL       string        `json:"erpUrl"`
    HeadOffices  []HeadOffice  `json:"headOffices"`
}

// AnonymousSession is the signed-out default: every field empty, not logged.
func AnonymousSession() SessionRecord {
    return SessionRecord{Resources: []string{}, HeadOffices: []HeadOffice{}}
}

// FindHeadOffice returns the head office with the given id, if the session
// carries it.
func (s SessionRecord) FindHeadOffice(id int64) (HeadOffice, bool) {
    for _, h := range s.HeadOffices {
        if h.ID == id {
            return h, true
        }
    }
    return HeadOffice{}, false
}
