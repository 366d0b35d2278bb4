package ad

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"adreset/internal/config"
)

const connectTimeout = 3 * time.Second

// Session owns a single connection to the Active Directory domain
// controller. A session is built per logical operation (per request in the
// API layer), bound once, and closed when the operation finishes. It is not
// safe for concurrent use; concurrent callers build their own sessions.
type Session struct {
	cfg       config.ADConfig
	conn      *ldap.Conn
	bound     bool
	boundUser string
}

func NewSession(cfg config.ADConfig) *Session {
	return &Session{cfg: cfg}
}

// BaseDN derives the search base from the configured domain name,
// e.g. "adreset.local" becomes "DC=adreset,DC=local".
func (s *Session) BaseDN() string {
	return "DC=" + strings.ReplaceAll(s.cfg.Domain, ".", ",DC=")
}

// connect opens the transport connection if one is not already open. Only
// the ldaps scheme is accepted; go-ldap does not chase referrals, which is
// the behavior we want against a domain controller.
func (s *Session) connect() error {
	if s.conn != nil {
		return nil
	}
	if s.cfg.URI == "" {
		log.Print("ad: the directory URI is not set")
		return &ConfigurationError{Msg: "The application has a configuration error. Ask the administrator to check the logs."}
	}
	if !strings.HasPrefix(s.cfg.URI, "ldaps://") {
		log.Printf("ad: LDAPS is required but the URI is %q", s.cfg.URI)
		return &ConfigurationError{Msg: "The application has a configuration error. Ask the administrator to check the logs."}
	}

	tlsCfg := &tls.Config{InsecureSkipVerify: s.cfg.SkipVerify}
	conn, err := ldap.DialURL(
		s.cfg.URI,
		ldap.DialWithDialer(&net.Dialer{Timeout: connectTimeout}),
		ldap.DialWithTLSConfig(tlsCfg),
	)
	if err != nil {
		log.Printf("ad: connecting to %q failed: %v", s.cfg.URI, err)
		return &ADError{Msg: "The connection to Active Directory failed. Please try again."}
	}
	s.conn = conn
	return nil
}

// Login binds the session with the supplied credentials. Calling Login on
// an already-bound session tears the connection down and reopens it first;
// a live bind is never reused. A failed bind for the configured service
// account is a fatal application problem and surfaces as an ADError; any
// other failed bind is an ordinary AuthError.
func (s *Session) Login(username, password string) error {
	if err := s.connect(); err != nil {
		return err
	}
	if s.bound {
		log.Print("ad: login called on a bound connection, reconnecting")
		s.Close()
		if err := s.connect(); err != nil {
			return err
		}
	}

	principal := s.formatPrincipal(username)
	var err error
	if s.cfg.UseNTLM {
		ntlmDomain, account := splitNTLMPrincipal(principal, s.cfg.Domain)
		err = s.conn.NTLMBind(ntlmDomain, account, password)
	} else {
		err = s.conn.Bind(principal, password)
	}
	if err != nil {
		if username == s.cfg.ServiceUsername {
			log.Printf("ad: the service account failed to bind: %v", err)
			return &ADError{Msg: unknownErrorMsg}
		}
		log.Printf("ad: the user %q failed to bind", principal)
		return &AuthError{Msg: "The username or password is incorrect. Please try again."}
	}

	s.bound = true
	s.boundUser = principal
	if username == s.cfg.ServiceUsername {
		log.Print("ad: the service account logged in successfully")
	} else {
		log.Printf("ad: the user %q logged in successfully", principal)
	}
	return nil
}

// ServiceLogin binds with the configured privileged service account.
func (s *Session) ServiceLogin() error {
	return s.Login(s.cfg.ServiceUsername, s.cfg.ServicePassword)
}

// formatPrincipal builds the bind principal for the configured
// authentication mode. A caller-supplied qualified name (UPN, domain
// prefix, or distinguished name) is used verbatim.
func (s *Session) formatPrincipal(username string) string {
	if strings.Contains(username, "@") || strings.Contains(username, `\`) ||
		strings.Contains(strings.ToUpper(username), "CN=") {
		return username
	}
	if s.cfg.UseNTLM {
		return s.cfg.Domain + `\` + username
	}
	return username + "@" + s.cfg.Domain
}

// splitNTLMPrincipal breaks DOMAIN\account apart for go-ldap's NTLMBind.
func splitNTLMPrincipal(principal, defaultDomain string) (string, string) {
	if i := strings.Index(principal, `\`); i >= 0 {
		return principal[:i], principal[i+1:]
	}
	return defaultDomain, principal
}

// WhoAmI returns the bound identity's bare logon name.
func (s *Session) WhoAmI() (string, error) {
	if !s.bound {
		log.Print("ad: whoami called on an unbound connection")
		return "", &ADError{Msg: unknownErrorMsg}
	}
	res, err := s.conn.WhoAmI(nil)
	if err != nil {
		log.Printf("ad: the whoami request failed: %v", err)
		return "", &ADError{Msg: unknownErrorMsg}
	}
	return shortAccountName(res.AuthzID), nil
}

// shortAccountName strips the authzId prefix, domain prefix, or DN
// wrapping from an identity, leaving the bare logon name. AD reports the
// identity as u:DOMAIN\name; some servers report dn:CN=name,....
func shortAccountName(identity string) string {
	identity = strings.TrimPrefix(identity, "u:")
	if i := strings.LastIndex(identity, `\`); i >= 0 {
		return identity[i+1:]
	}
	identity = strings.TrimPrefix(identity, "dn:")
	if strings.Contains(strings.ToUpper(identity), "CN=") {
		for _, part := range strings.Split(identity, ",") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(strings.ToUpper(part), "CN=") {
				return part[3:]
			}
		}
	}
	return identity
}

// Search runs a subtree search rooted at the base DN. With strict set, a
// search that yields no entries is an ADError; otherwise no entries is an
// empty, non-error result.
func (s *Session) Search(filter string, attributes []string, strict bool) ([]*ldap.Entry, error) {
	if !s.bound {
		return nil, &ADError{Msg: "You must be logged in to search Active Directory"}
	}
	log.Printf("ad: searching with %q for attributes: %s", filter, strings.Join(attributes, ", "))

	req := ldap.NewSearchRequest(
		s.BaseDN(),
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases, 0, 30, false,
		filter,
		attributes,
		nil,
	)
	res, err := s.conn.Search(req)
	if err != nil {
		log.Printf("ad: the search for %q failed: %v", filter, err)
		return nil, &ADError{Msg: failedSearchMsg}
	}
	if len(res.Entries) == 0 {
		log.Printf("ad: the search for %q did not yield any results", filter)
		if strict {
			return nil, &ADError{Msg: failedSearchMsg}
		}
		return nil, nil
	}
	return res.Entries, nil
}

// GetAttributes fetches attributes of the object with the given
// sAMAccountName. A missing object or attribute is logged and yields an
// empty result rather than an error, so callers can distinguish "absent"
// from "search failed" by the return shape.
func (s *Session) GetAttributes(samAccountName string, attributes []string) (Attributes, error) {
	filter := fmt.Sprintf("(sAMAccountName=%s)", ldap.EscapeFilter(samAccountName))
	attrs, err := s.getAttributes(filter, attributes)
	if err != nil {
		return Attributes{}, err
	}
	if attrs.Empty() {
		log.Printf("ad: the attribute(s) %s for %q couldn't be found",
			strings.Join(attributes, ", "), samAccountName)
	}
	return attrs, nil
}

// GetDomainAttributes fetches attributes of the domain object itself.
func (s *Session) GetDomainAttributes(attributes []string) (Attributes, error) {
	attrs, err := s.getAttributes("(objectClass=domainDNS)", attributes)
	if err != nil {
		return Attributes{}, err
	}
	if attrs.Empty() {
		log.Printf("ad: the attribute(s) %s on the domain couldn't be found",
			strings.Join(attributes, ", "))
	}
	return attrs, nil
}

func (s *Session) getAttributes(filter string, attributes []string) (Attributes, error) {
	entries, err := s.Search(filter, attributes, false)
	if err != nil {
		return Attributes{}, err
	}
	if len(entries) == 0 {
		return Attributes{}, nil
	}
	return newAttributes(entries[0]), nil
}

// ModifyReplace issues a single replace modify against the given DN. The
// bound identity needs rights to the attribute; the domain controller
// rejects the write otherwise.
func (s *Session) ModifyReplace(dn, attribute, value string) error {
	if !s.bound {
		return &ADError{Msg: "You must be logged in to modify Active Directory"}
	}
	req := ldap.NewModifyRequest(dn, nil)
	req.Replace(attribute, []string{value})
	if err := s.conn.Modify(req); err != nil {
		log.Printf("ad: modifying %q on %q failed: %v", attribute, dn, err)
		return &ADError{Msg: unknownErrorMsg}
	}
	return nil
}

// Close releases the connection. The session can be reused afterwards; the
// next operation reconnects.
func (s *Session) Close() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.bound = false
	s.boundUser = ""
}

// Attributes is the reduced result of a single-object search: the object's
// DN plus the requested attribute values. Has distinguishes an attribute
// that is absent on the object from one that is present but empty.
type Attributes struct {
	DN     string
	values map[string][]string
	raw    map[string][]byte
}

func newAttributes(entry *ldap.Entry) Attributes {
	a := Attributes{
		DN:     entry.DN,
		values: make(map[string][]string, len(entry.Attributes)),
		raw:    make(map[string][]byte, len(entry.Attributes)),
	}
	for _, attr := range entry.Attributes {
		a.values[attr.Name] = attr.Values
		if len(attr.ByteValues) > 0 {
			a.raw[attr.Name] = attr.ByteValues[0]
		}
	}
	return a
}

// Empty reports whether the search found no object at all.
func (a Attributes) Empty() bool { return a.DN == "" }

func (a Attributes) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Value returns the attribute's first value, or "" when absent.
func (a Attributes) Value(name string) string {
	if vs := a.values[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Raw returns the attribute's first value as raw bytes, for binary
// attributes like objectSid and objectGUID.
func (a Attributes) Raw(name string) []byte { return a.raw[name] }

// Int64 parses the attribute's first value as an integer.
func (a Attributes) Int64(name string) (int64, bool) {
	v := a.Value(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
