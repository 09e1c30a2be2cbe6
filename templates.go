package norah

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Fragments are the seed-chosen stylistic pieces a template may weave in.
type Fragments struct {
	Hedge  string
	Marker string
	Closer string
	Seed   int
}

// TemplateFunc renders one canned response.
type TemplateFunc func(ic IntelContext, a Analysis, f Fragments) string

// templateTable maps intent → state → variants. The mentor/idle cell is the
// fallback for any empty cell and must never be empty.
var templateTable = map[Intent]map[SessionState][]TemplateFunc{
	IntentMentor: {
		StateIdle:    mentorIdle,
		StateCollect: mentorCollect,
		StateAnalyze: mentorAnalyze,
		StateAdvise:  mentorAdvise,
	},
	IntentAbout: {
		StateIdle:    about,
		StateCollect: about,
		StateAnalyze: about,
		StateAdvise:  about,
	},
	IntentClassify: {
		StateAnalyze: classify,
		StateAdvise:  classify,
	},
	IntentPatterns: {
		StateAnalyze: patternsAnalyze,
		StateAdvise:  patternsAdvise,
	},
	IntentDecode: {
		StateAnalyze: decode,
		StateAdvise:  decode,
	},
	IntentProbability: {
		StateAnalyze: probabilityAnalyze,
		StateAdvise:  probabilityAdvise,
	},
}

// SelectTemplate picks a variant for (intent, state), falling back to mentor/idle.
func SelectTemplate(intent Intent, state SessionState, seed int) TemplateFunc {
	list := templateTable[intent][state]
	if len(list) == 0 {
		list = templateTable[IntentMentor][StateIdle]
	}
	return Pick(list, seed)
}

// Render selects and renders the template for one request, then applies variety.
func Render(ic IntelContext, a Analysis, intent Intent, state SessionState, seed int) string {
	f := Fragments{
		Hedge:  PickHedge(seed + 1),
		Marker: PickMarker(seed + 3),
		Closer: PickCloser(seed + 2),
		Seed:   seed,
	}
	text := SelectTemplate(intent, state, seed)(ic, a, f)
	text += keywordCallout(a, f)
	return AddVariety(text, seed)
}

// keywordCallout lists the top keywords on roughly half of the seeds.
func keywordCallout(a Analysis, f Fragments) string {
	if len(a.Keywords) == 0 || absMod(f.Seed/2, 2) != 0 {
		return ""
	}
	kws := a.Keywords
	if len(kws) > 4 {
		kws = kws[:4]
	}
	return " 🔑 Parole chiave: " + strings.Join(quoteAll(kws), ", ") + "."
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = "*" + s + "*"
	}
	return out
}

func percent(x float64) int {
	return int(x*100 + 0.5)
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

// --- mentor ---

var mentorIdle = []TemplateFunc{
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Sono Norah, l'analista AION assegnata alla tua squadra. Raccogli indizi, poi chiedimi di classificarli o di cercare pattern. Siamo nella settimana %d della missione.", ic.Week)
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return "Ogni missione comincia dagli indizi. Quando ne avrai qualcuno, posso confrontarli, cercare ricorrenze e provare a decifrarli. Intanto chiedimi pure come funziona il protocollo."
	},
}

var mentorCollect = []TemplateFunc{
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Hai %d indizi su %d necessari per l'analisi. Il modo più rapido per avanzare è usare il Buzz nelle zone che non hai ancora esplorato. Annota ogni parola insolita: spesso è lì la chiave.", len(ic.UserClues), analyzeThreshold)
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Nella fase di raccolta conta la quantità. Con %d indizi posso solo osservare, dal terzo in poi inizio a incrociare i dati. Torna da me appena ne sblocchi un altro.", len(ic.UserClues))
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Siamo nella settimana %d e il tuo archivio conta %d indizi. %s, conviene puntare sugli indizi recenti: pesano di più nell'analisi. Non trascurare i dettagli nei titoli.", ic.Week, len(ic.UserClues), f.Hedge)
	},
}

var mentorAnalyze = []TemplateFunc{
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Con %d indizi puoi già chiedermi di classificarli o di cercare pattern. Prova anche \"decodifica\" se qualche testo ti sembra cifrato. L'affidabilità attuale dell'analisi è del %d%%.", len(ic.UserClues), percent(a.Confidence))
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return "Hai materiale sufficiente per ragionare. Rileggi gli indizi in ordine cronologico e cerca parole che ritornano. Se preferisci, lo faccio io: chiedimi i pattern."
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Oggi hai raccolto %d indizi, in totale %d. %s, ti suggerisco di confrontare gli ultimi arrivati con i primi. Le differenze dicono quanto le somiglianze.", ic.Totals.Today, ic.Totals.Found, f.Marker)
	},
}

var mentorAdvise = []TemplateFunc{
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Sei in fase avanzata con %d indizi. Adesso conta la sintesi: scegli due o tre parole chiave e verifica se puntano nella stessa direzione. Chiedimi una stima di probabilità per capire quanto sei vicino.", len(ic.UserClues))
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Il tuo archivio è ricco: %d indizi, %d raccolti oggi. Ti suggerisco di mettere da parte gli indizi più vecchi e puntare su quelli freschi. La strada si stringe.", ic.Totals.Found, ic.Totals.Today)
	},
}

// --- about ---

var about = []TemplateFunc{
	func(ic IntelContext, a Analysis, f Fragments) string {
		return "Sono Norah, il modulo di intelligence AION. Analizzo i tuoi indizi con metodi deterministici: frequenze, ricorrenze e cifrari semplici. Non conosco la soluzione e non posso rivelarla, ma posso aiutarti a ragionare."
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Mi chiamo Norah e lavoro per il protocollo AION. Il mio compito è leggere gli indizi dell'agente %s e trovare connessioni. Più indizi raccogli, più la mia analisi diventa precisa.", ic.AgentCode)
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Norah, analista AION, al tuo servizio. Seguo la missione fin dal primo giorno e oggi siamo alla settimana %d. Chiedimi di classificare, cercare pattern o decodificare.", ic.Week)
	},
}

// --- classify ---

func describeBuckets(a Analysis) string {
	switch len(a.Clusters) {
	case 0:
		return "Non ho trovato abbastanza parole chiave per separare gli indizi"
	case 1:
		return fmt.Sprintf("Tutti i %d indizi finiscono nello stesso gruppo: parlano una lingua comune", len(a.Clusters[0]))
	default:
		return fmt.Sprintf("Il primo gruppo raccoglie %d indizi ricchi di parole chiave, il secondo %d indizi più isolati", len(a.Clusters[0]), len(a.Clusters[1]))
	}
}

var classify = []TemplateFunc{
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Ho diviso i tuoi %d indizi in %d gruppi. %s. Parti dal gruppo più denso, poi usa gli indizi isolati per verificare le tue ipotesi.", len(ic.UserClues), len(a.Clusters), describeBuckets(a))
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Classificazione completata. %s. %s, gli indizi del gruppo principale sono quelli su cui investire tempo.", describeBuckets(a), f.Hedge)
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		if len(a.Clusters) == 0 || len(a.Clusters[0]) == 0 {
			return "La classificazione non ha prodotto gruppi utili. Servono indizi con più testo. Riprova dopo il prossimo Buzz."
		}
		return fmt.Sprintf("Ecco l'indizio che guida il primo gruppo: \"%s\". %s. Confronta gli altri indizi con questo.", excerpt(a.Clusters[0][0], 80), describeBuckets(a))
	},
}

// --- patterns ---

var patternsAnalyze = []TemplateFunc{
	func(ic IntelContext, a Analysis, f Fragments) string {
		if len(a.Keywords) == 0 {
			return "Non trovo ancora ricorrenze solide. Gli indizi usano parole troppo diverse tra loro. Ne serve qualcuno in più per far emergere uno schema."
		}
		return fmt.Sprintf("Ho individuato alcune ricorrenze nei tuoi indizi. La parola più significativa è \"%s\". Se compare in più indizi, non è una coincidenza.", a.Keywords[0])
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		if len(a.Keywords) < 2 {
			return fmt.Sprintf("Lo schema è ancora debole con %d indizi. Rileggi i titoli: a volte il pattern si nasconde lì. Torna quando ne avrai sbloccato un altro.", len(ic.UserClues))
		}
		return fmt.Sprintf("Pattern rilevati tra \"%s\" e \"%s\". Prova a leggere questi termini insieme, come se fossero una frase. Nella settimana %d i collegamenti diventano decisivi.", a.Keywords[0], a.Keywords[1], ic.Week)
	},
}

var patternsAdvise = []TemplateFunc{
	func(ic IntelContext, a Analysis, f Fragments) string {
		if len(a.Keywords) == 0 {
			return "Anche con un archivio ampio non emergono parole dominanti. Questo suggerisce indizi volutamente frammentati. Concentrati sul contesto più che sulle parole."
		}
		return fmt.Sprintf("Su %d indizi lo schema è chiaro: %s. %s, questi termini descrivono lo stesso luogo da angolazioni diverse. Verifica quale li unisce tutti.", len(ic.UserClues), strings.Join(quoteAll(a.Keywords[:min(3, len(a.Keywords))]), ", "), f.Hedge)
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Il quadro è quasi completo. %s. Le ricorrenze più forti vanno lette insieme agli indizi più recenti, non a quelli vecchi.", describeBuckets(a))
	},
}

// --- decode ---

func describeDecodings(ds []Decoding) string {
	parts := make([]string, 0, 3)
	for _, d := range ds {
		if len(parts) == cap(parts) {
			break
		}
		parts = append(parts, fmt.Sprintf("con %s ottengo \"%s\"", d.Method, excerpt(d.Output, 60)))
	}
	return strings.Join(parts, "; ")
}

var decode = []TemplateFunc{
	func(ic IntelContext, a Analysis, f Fragments) string {
		if len(a.Decoded) == 0 {
			return "Nessuno dei cifrari semplici ha dato risultati leggibili. Forse il messaggio non è cifrato, oppure usa una chiave che non conosco. Cerca numeri o lettere fuori posto."
		}
		return fmt.Sprintf("Ho tentato %d decodifiche. In sintesi: %s. Nessun metodo è garantito: valuta tu quale risultato ha senso.", len(a.Decoded), describeDecodings(a.Decoded))
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		if len(a.Decoded) == 0 {
			return "I testi resistono a Base64, Cesare e lettura inversa. Può darsi che la chiave sia nel luogo, non nel testo. Riprova con il prossimo indizio."
		}
		d := a.Decoded[0]
		return fmt.Sprintf("Il tentativo più promettente usa il metodo %s. Dal testo \"%s\" ricavo \"%s\". %s, confronta il risultato con le parole chiave.", d.Method, excerpt(d.Source, 50), excerpt(d.Output, 50), f.Marker)
	},
}

// --- probability ---

var probabilityAnalyze = []TemplateFunc{
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("In base a %d indizi l'affidabilità della mia analisi è del %d%%. È una stima sulla qualità dei dati, non sulla distanza dal premio. Più indizi recenti raccogli, più la stima sale.", len(ic.UserClues), percent(a.Confidence))
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Affidabilità attuale: %d%%. %s, gli indizi più vecchi stanno perdendo peso. Un nuovo Buzz oggi farebbe la differenza.", percent(a.Confidence), f.Hedge)
	},
}

var probabilityAdvise = []TemplateFunc{
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Stima aggiornata: %d%% di confidenza sull'analisi. Sei in fase avanzata, quindi ogni nuovo indizio pesa meno ma conferma di più. Concentrati sui dettagli ricorrenti.", percent(a.Confidence))
	},
	func(ic IntelContext, a Analysis, f Fragments) string {
		return fmt.Sprintf("Con %d indizi e una confidenza del %d%% hai un vantaggio concreto. %s, il margine di errore si riduce a ogni conferma. Non disperdere le energie.", len(ic.UserClues), percent(a.Confidence), f.Marker)
	},
}
