package gib_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway/gib"
)

// request is one SOAP call as seen by the fake service
type request struct {
	Action      string
	ContentType string
	Token       string
	Body        string
}

type handlerFunc func(r request) (int, string)

// fakeGIB is an in-process stand-in for the e-Arşiv SOAP service.
// Login hands out tok-1, tok-2, ... in order.
type fakeGIB struct {
	srv *httptest.Server

	mu        sync.Mutex
	logins    int
	calls     map[string]int
	last      map[string]request
	expired   map[string]bool
	expireAll bool
	loginFail bool
	handlers  map[string]handlerFunc
}

var tokenPattern = regexp.MustCompile(`<SessionToken[^>]*>([^<]*)</SessionToken>`)

func newFakeGIB(t *testing.T) *fakeGIB {
	f := &fakeGIB{
		calls:    make(map[string]int),
		last:     make(map[string]request),
		expired:  make(map[string]bool),
		handlers: make(map[string]handlerFunc),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGIB) URL() string {
	return f.srv.URL
}

func (f *fakeGIB) handle(action string, h handlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[action] = h
}

func (f *fakeGIB) expire(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired[token] = true
}

func (f *fakeGIB) count(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[action]
}

func (f *fakeGIB) loginCount() int {
	return f.count(gib.OpLogin)
}

func (f *fakeGIB) lastRequest(action string) request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last[action]
}

func (f *fakeGIB) serve(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := request{
		Action:      r.Header.Get("SOAPAction"),
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(data),
	}
	if m := tokenPattern.FindStringSubmatch(req.Body); m != nil {
		req.Token = m[1]
	}

	f.mu.Lock()
	f.calls[req.Action]++
	f.last[req.Action] = req

	if req.Action == gib.OpLogin {
		f.logins++
		n, fail := f.logins, f.loginFail
		f.mu.Unlock()
		if fail {
			writeSOAP(w, http.StatusInternalServerError,
				soapFault(gib.FaultAuthentication, "kullanıcı "+field(req.Body, "userid")+" şifre "+field(req.Body, "sifre")+" hatalı"))
			return
		}
		writeSOAP(w, http.StatusOK, soapOK(gib.OpLogin, fmt.Sprintf("<token>tok-%d</token>", n)))
		return
	}

	expired := req.Token == "" || f.expireAll || f.expired[req.Token]
	h := f.handlers[req.Action]
	f.mu.Unlock()

	if expired {
		writeSOAP(w, http.StatusInternalServerError, soapFault(gib.FaultSessionExpired, "oturum süresi doldu"))
		return
	}
	if h == nil {
		writeSOAP(w, http.StatusInternalServerError, soapFault("UnknownOperation", req.Action))
		return
	}

	status, body := h(req)
	writeSOAP(w, status, body)
}

func writeSOAP(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func soapOK(op, inner string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		`<` + op + `Response xmlns="` + gib.Namespace + `">` + inner + `</` + op + `Response>` +
		`</soap:Body></soap:Envelope>`
}

func soapFault(code, message string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><soap:Fault>` +
		`<faultcode>soap:Client</faultcode><faultstring>` + message + `</faultstring>` +
		`<detail><code>` + code + `</code><message>` + message + `</message></detail>` +
		`</soap:Fault></soap:Body></soap:Envelope>`
}

// field returns the text of the first <name> element in a request body
func field(body, name string) string {
	m := regexp.MustCompile(`<` + name + `>([^<]*)</` + name + `>`).FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return m[1]
}

type record struct {
	ettn, number, date, supplier, supplierVKN, customer, customerVKN, total, status string
	lines                                                                          string
}

func (r record) xml() string {
	var b strings.Builder
	b.WriteString("<invoice>")
	write := func(tag, v string) {
		if v != "" {
			b.WriteString("<" + tag + ">" + v + "</" + tag + ">")
		}
	}
	write("ettn", r.ettn)
	write("belgeNumarasi", r.number)
	write("belgeTarihi", r.date)
	write("gonderenVkn", r.supplierVKN)
	write("gonderenUnvan", r.supplier)
	write("aliciVknTckn", r.customerVKN)
	write("aliciUnvan", r.customer)
	write("toplamTutar", r.total)
	write("paraBirimi", "TRY")
	write("onayDurumu", r.status)
	if r.lines != "" {
		b.WriteString("<malHizmetTable>" + r.lines + "</malHizmetTable>")
	}
	b.WriteString("</invoice>")
	return b.String()
}

func line(name, qty, price, amount string) string {
	return "<satir><malHizmet>" + name + "</malHizmet><miktar>" + qty + "</miktar>" +
		"<birimFiyat>" + price + "</birimFiyat><malHizmetTutari>" + amount + "</malHizmetTutari></satir>"
}
