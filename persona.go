package norah

import "fmt"

// greetings open every session. Each takes the agent code once.
var greetings = []string{
	"👋 Benvenuto, agente %s. Sono Norah, la tua analista AION. Raccontami cosa hai trovato e iniziamo.",
	"📡 Connessione stabilita con l'agente %s. Norah in linea: i tuoi indizi sono al sicuro con me.",
	"🛰️ Agente %s, qui Norah dal centro di intelligence AION. Sono pronta ad analizzare la tua missione.",
	"🔎 Ciao %s. Sono Norah: leggo indizi, trovo schemi e non dormo mai. Da dove cominciamo?",
	"🧠 Protocollo AION attivo. Agente %s, sono Norah e da ora seguo ogni tuo indizio.",
}

// Greeting returns the fixed first-message greeting for the agent,
// selected by Σrunes(agentCode) mod 5.
func Greeting(ic IntelContext) string {
	return fmt.Sprintf(Pick(greetings, runeSum(ic.AgentCode)), ic.AgentCode)
}

// personaEvery is the message cadence at which the agent may be named.
const personaEvery = 5

// InjectPersona may prepend an agent reference on every fifth message.
func InjectPersona(text string, ic IntelContext, messageCount, seed int) string {
	if messageCount == 0 || messageCount%personaEvery != 0 || absMod(seed, 2) != 0 {
		return text
	}
	return "**" + ic.AgentCode + "**, " + lowerFirst(text)
}

// StatePrefix labels the reply with the session phase; idle has none.
func StatePrefix(state SessionState, ic IntelContext) string {
	n := len(ic.UserClues)
	switch state {
	case StateCollect:
		return fmt.Sprintf("Fase raccolta (%d/%d min): ", n, analyzeThreshold)
	case StateAnalyze:
		return fmt.Sprintf("Fase analisi (%d indizi): ", n)
	case StateAdvise:
		return fmt.Sprintf("Fase consulenza (%d indizi): ", n)
	}
	return ""
}
