/*
Package sim runs a churn simulation against a roster and checks the result.

Writers append distinct contacts and remove some of their own while readers
traverse the roster continuously. Once writers finish, Run checks that the
roster holds exactly the contacts that were added and not removed, in each
writer's insertion order, and that no reader ever saw a contact twice in one
pass.

	s := config.DefaultSimulation()
	s.Writers = 8
	report, err := sim.Run(ctx, s, sim.WithLogger(logger))
	if errors.Is(err, sim.ErrInvariant) {
	    // the roster lost, resurrected or duplicated a contact
	}
*/
package sim
