package shell

import "io"

func usage(w io.Writer) {
	io.WriteString(w, "commands:\n")
	io.WriteString(w, "scenario <path> - load a scenario yaml (players, strategies, payoff models)\n")
	io.WriteString(w, "load <path> - load a probabilities csv and build the payoff tensors\n")
	io.WriteString(w, "sample <path> - write a template csv for the loaded scenario\n")
	io.WriteString(w, "show - print the payoff tables\n")
	io.WriteString(w, "solve [parallel] - find all pure strategy Nash equilibria\n")
	io.WriteString(w, "payoff <s1> <s2> <s3> - print each player's payoff at a profile\n")
	io.WriteString(w, "best <player 0-2> <sA> <sB> - best responses against the others' strategies\n")
	io.WriteString(w, "    (sA, sB are the other two players' strategies in ascending player order)\n")
	io.WriteString(w, "mc <player 0-2> <s1> <s2> <s3> [iters] [seed] - monte carlo cross-check of one cell\n")
	io.WriteString(w, "normalize [scale] - rescale payoffs from 0-100 to 0-scale (default 10)\n")
	io.WriteString(w, "set <key> <value> - change a setting (threads, mc-iterations, ...)\n")
	io.WriteString(w, "settings - show effective settings\n")
	io.WriteString(w, "exit - leave the shell\n")
}
