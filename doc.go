/*
Package storyboard compiles branching-narrative scenario documents into a
canonical graph and plays them.

A scenario is a JSON or YAML document made of acts, each holding a list of
nodes. Authors may write nodes loosely: bare strings, localized text objects,
choices with or without targets. The compiler normalises any such document
into a graph where every node is a line, a choice, a goto or an end, and where
every node has exactly one way forward or is terminal. Compilation never
fails; problems are reported as warnings.

A session walks the graph one act at a time. Choices apply bounded meter
effects, and progress is saved after every transition so a player can resume
or restart an act.

# Usage

	player := storyboard.New(
		storyboard.WithDir("./scenarios"),
		storyboard.WithStore(file.NewStore(".storyboard/progress")),
	)

	sc, err := player.Load(ctx, "intro")
	if err != nil {
		log.Printf("offer retry: %v", err)
	}

	session, _ := player.Play(ctx, sc, "act1")
	snap := session.Snapshot(ctx)
	for !snap.Terminal {
		if snap.Type == domain.NodeTypeChoice {
			snap, _ = session.Choose(ctx, 0)
			continue
		}
		snap, _ = session.Advance(ctx)
	}
*/
package storyboard
