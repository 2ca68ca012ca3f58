package odds

import "github.com/shopspring/decimal"

// CumulateOdds multiplica todas as odds resolvidas. Mapa vazio resulta em 1;
// uma odd zero zera o resultado. A conta é feita em decimal para que 1.6 x 3.0
// dê 4.8 e não 4.800000000000001.
func CumulateOdds(oddsByMatch map[string]float64) float64 {
	product := decimal.NewFromInt(1)
	for _, v := range oddsByMatch {
		product = product.Mul(decimal.NewFromFloat(v))
	}
	return product.InexactFloat64()
}
