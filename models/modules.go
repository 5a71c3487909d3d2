package models

import "fmt"

// Application modules a user may be granted.
const (
	ModuloFornecedores = "fornecedores"
	ModuloTickets      = "tickets"
	ModuloCompras      = "compras"
	ModuloPagamentos   = "pagamentos"
	ModuloRelatorios   = "relatorios"
)

// AllModules lists every module in menu order.
var AllModules = []string{ModuloFornecedores, ModuloTickets, ModuloCompras, ModuloPagamentos, ModuloRelatorios}

// ValidateModules returns an error naming the first unknown module.
func ValidateModules(mods []string) error {
	for _, m := range mods {
		known := false
		for _, k := range AllModules {
			if m == k {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown module %q", m)
		}
	}
	return nil
}
