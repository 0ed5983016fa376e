package compose

import (
	"fmt"

	"ForceField/internal/domain/models"
)

// The vocabulary below is the fixed force language consumed by dashboards.
// Every text is produced by a total rule: each intensity falls in exactly
// one bucket, so composition never returns an empty analysis.

func analyzeZone(intensity float64) string {
	switch {
	case intensity > 80:
		return "Campo magnético extremamente intenso - alta probabilidade de ruptura"
	case intensity > 50:
		return "Campo magnético forte - movimento significativo esperado"
	case intensity > 20:
		return "Campo magnético moderado - atenção redobrada"
	default:
		return "Campo magnético suave - monitoramento passivo"
	}
}

func recommendZone(intensity float64) []string {
	switch {
	case intensity > 80:
		return []string{"Aguardar ruptura iminente", "Preparar posição", "Monitorar volume"}
	case intensity > 50:
		return []string{"Atenção redobrada", "Verificar ressonâncias", "Aguardar confirmação"}
	default:
		return []string{"Monitoramento passivo", "Aguardar fortalecimento"}
	}
}

func analyzeResonance(pairCount int) string {
	switch {
	case pairCount > 5:
		return "Ressonância múltipla detectada - padrão histórico muito forte"
	case pairCount > 2:
		return "Ressonância significativa - repetição de padrão confirmada"
	default:
		return "Ressonância leve - possível repetição de padrão"
	}
}

func recommendResonance(pairCount int) []string {
	switch {
	case pairCount > 5:
		return []string{"Alta probabilidade de repetição", "Posicionar estrategicamente", "Usar stop tight"}
	case pairCount > 2:
		return []string{"Considerar entrada", "Verificar contexto atual", "Monitorar confirmação"}
	default:
		return []string{"Aguardar mais sinais", "Manter observação"}
	}
}

func analyzeFlow(direction models.FlowDirection, confidence float64) string {
	switch {
	case confidence > 0.8:
		return fmt.Sprintf("Fluxo gravitacional %s muito forte - movimento direcional claro", direction)
	case confidence > 0.5:
		return fmt.Sprintf("Fluxo gravitacional %s moderado - tendência estabelecida", direction)
	default:
		return fmt.Sprintf("Fluxo gravitacional %s suave - direção incerta", direction)
	}
}

func recommendFlow(direction models.FlowDirection, confidence float64) []string {
	switch {
	case confidence > 0.8:
		return []string{fmt.Sprintf("Seguir fluxo %s", direction), "Posicionar na direção", "Usar momentum"}
	case confidence > 0.5:
		return []string{fmt.Sprintf("Considerar fluxo %s", direction), "Aguardar confirmação", "Monitorar força"}
	default:
		return []string{"Aguardar direção clara", "Manter neutralidade"}
	}
}

func analyzeEcho(occurrences int) string {
	switch {
	case occurrences > 3:
		return "Eco temporal dominante - proporção constante em múltiplas escalas"
	case occurrences > 2:
		return "Eco temporal confirmado - ciclo similar em escalas distintas"
	default:
		return "Eco temporal emergente - fractal detectado em duas escalas"
	}
}

func recommendEcho(occurrences int) []string {
	switch {
	case occurrences > 3:
		return []string{"Projetar ciclo para a próxima escala", "Alinhar entradas ao ciclo", "Monitorar quebra de proporção"}
	default:
		return []string{"Acompanhar repetição do ciclo", "Aguardar confirmação em escala maior"}
	}
}

func analyzeCompression(intensity float64) string {
	switch {
	case intensity > 80:
		return "Compressão magnética crítica - acúmulo de energia antes de uma explosão"
	case intensity > 50:
		return "Compressão magnética forte - range estreito com volume crescente"
	default:
		return "Compressão magnética inicial - volatilidade em queda"
	}
}

func recommendCompression(intensity float64) []string {
	switch {
	case intensity > 80:
		return []string{"Preparar para expansão de range", "Definir gatilhos nos extremos", "Monitorar volume"}
	default:
		return []string{"Aguardar estreitamento adicional", "Marcar extremos da compressão"}
	}
}
