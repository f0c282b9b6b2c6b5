package deployer

import "github.com/UKHomeOffice/gwdeploy/pkg/gateway"

// defaultCORS is open to every origin
func defaultCORS(path, method string) gateway.CORS {
	return gateway.CORS{
		Path:             path,
		Method:           method,
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Origin", "Accept", "Content-Type"},
		AllowCredentials: false,
	}
}

// mergeCORS builds the record to submit for path and method. Fields come from
// the defaults, then from the stored record if there is one, then from every
// field set in cfg. Lists are replaced whole, never appended to.
func mergeCORS(prior *gateway.CORS, path, method string, cfg *CorsConfig) gateway.CORS {

	out := defaultCORS(path, method)
	if prior != nil {
		out = *prior
		out.AllowedOrigins = copyStrings(prior.AllowedOrigins)
		out.AllowedMethods = copyStrings(prior.AllowedMethods)
		out.AllowedHeaders = copyStrings(prior.AllowedHeaders)
	}
	out.Path = path
	out.Method = method

	if cfg == nil {
		return out
	}
	if cfg.AllowedOrigins != nil {
		out.AllowedOrigins = copyStrings(cfg.AllowedOrigins)
	}
	if cfg.AllowedMethods != nil {
		out.AllowedMethods = copyStrings(cfg.AllowedMethods)
	}
	if cfg.AllowedHeaders != nil {
		out.AllowedHeaders = copyStrings(cfg.AllowedHeaders)
	}
	if cfg.AllowCredentials != nil {
		out.AllowCredentials = *cfg.AllowCredentials
	}
	return out
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
