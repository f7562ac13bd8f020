package notices

import (
	"strings"
	"time"

	"github.com/joeshaw/aveiro-bus/internal/models"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
}

// Seed holds the notices published by the operator when the service was
// first deployed.
var Seed = []models.Notice{
	{
		ID:      "1",
		Title:   "Atualização de Horários do Terminal",
		Content: "Alterações nos horários da bilheteira e do terminal a partir de 1 de maio.",
		DetailedInfo: strings.Join([]string{
			"Informamos que, a partir do dia 1 de maio, os horários do Terminal Rodoviário de Aveiro e da nossa bilheteira irão sofrer alterações.",
			"",
			"Horário do Terminal Rodoviário:",
			"Seg. a Qui. (exceto feriados): 07:00–19:00",
			"Sexta (ou quinta se sexta feriado): 07:00–20:00",
			"Sábado: 08:00–18:30",
			"Domingos (ou segunda se feriado): 08:00–20:00",
			"Feriados (exceto quando segunda for feriado): 08:00–18:30",
			"",
			"Horário da Bilheteira:",
			"Seg. a Qui. (exceto feriados): 07:00–19:00",
			"Sexta (ou quinta se sexta feriado): 07:00–20:00",
			"Sábado: 08:00–11:00 / 13:00–18:30",
			"Domingos (ou segunda se feriado): 08:00–11:00 / 13:00–17:15 / 17:45–20:00",
			"Feriados (exceto quando segunda for feriado): 08:00–11:00 / 13:00–18:30",
		}, "\n"),
		PublishedAt: date(2025, time.April, 22),
	},
	{
		ID:      "2",
		Title:   "L3: Condicionamento Temporário",
		Content: "Percurso da Linha 3 condicionado a partir de 26 de março.",
		DetailedInfo: strings.Join([]string{
			"A partir de 26 de março de 2025 e durante cerca de 7 semanas, o percurso da L3 estará condicionado na R. D. Sancho I devido a obras.",
			"",
			"Sentido Aveiro > Zona Industrial:",
			"Paragens desativadas: General Costa Cascais B, Tanques de Esgueira B, Rua S. Bartolomeu, Qta. Cardadeiras.",
			"Alternativas: Igreja de Esgueira B, paragem temporária junto ao Pingo Doce.",
			"",
			"Sentido Zona Industrial > Aveiro:",
			"Paragens desativadas: Casa das Framboesas, Tanques de Esgueira A, Gen. Costa Cascais A.",
			"Alternativas: Paragem junto ao Pingo Doce, Igreja de Esgueira A.",
			"",
			"Paragem Travessa do Eucalipto também será desativada. Use a paragem Eucalipto B.",
		}, "\n"),
		PublishedAt: date(2025, time.March, 21),
	},
	{
		ID:      "3",
		Title:   "L4: Alteração Temporária de Percurso",
		Content: "Percurso da Linha 4 condicionado na zona das Alagoas.",
		DetailedInfo: strings.Join([]string{
			"Desde 14 de março e durante cerca de 5 semanas, o percurso da L4 estará condicionado na zona das Alagoas devido a obras.",
			"",
			"Sentido Aveiro > Eixo/Carregal:",
			"Paragens desativadas: Tanques de Esgueira B, R. 31 Janeiro/Griné B.",
			"Alternativas: R. Viso 1B, paragem temporária na Rua da Prata com Rua 31 de Janeiro.",
			"",
			"Sentido Carregal/Eixo > Aveiro:",
			"Paragens desativadas: Tanques de Esgueira A, R. 31 Janeiro/Griné A.",
			"Alternativas: R. Viso 1A, paragem temporária na Rua da Prata com Rua 31 de Janeiro.",
		}, "\n"),
		PublishedAt: date(2025, time.March, 13),
	},
	{
		ID:      "4",
		Title:   "L07: Condicionamento de Percurso",
		Content: "Linha 07 com percurso alterado desde 28 de novembro.",
		DetailedInfo: strings.Join([]string{
			"A partir de 28 de novembro e por tempo indeterminado, o percurso da L07 estará condicionado devido a obras.",
			"Paragens desativadas: Escola Areias de Vilar A/B.",
			"Alternativas: Santa Eufémia A/B e Areais A/B.",
		}, "\n"),
		PublishedAt: date(2024, time.November, 27),
	},
}
