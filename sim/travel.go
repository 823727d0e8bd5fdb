// Inter-node travel: a bilateral expected-contact-probability formula run
// once per day after the local event drain, producing Binomial-distributed
// new exposures at each node from contact with travelers (and travelers
// visiting elsewhere). Grounded line-for-line on StochasticSEATIRD::travel.

package sim

// rho is the fraction of a traveler's day spent in contact with the
// destination node's population, reproduced verbatim from original_source.
const rho = 0.39

// ageBasedFlowReductions divides travel-contact rates by an age-group factor:
// 10 for age group 0, 2 for age groups 1 and 4, and 1 (no reduction) for age
// groups 2 and 3. Verbatim from original_source.
var ageBasedFlowReductions = [NumAgeGroups]float64{10, 2, 1, 1, 2}

// travelStep runs the daily bilateral travel exposure pass across every
// ordered pair of nodes with a nonzero travel fraction in either direction.
func (sim *Simulator) travelStep(t int) error {
	n := len(sim.nodes)
	if n < 2 || sim.travel == nil {
		return nil
	}

	beta := sim.params.Beta()
	rng := sim.rng.ForSubsystem(SubsystemTravel)

	infectedByAge := make([][NumAgeGroups]float64, n)
	totalPop := make([]float64, n)
	for idx := range sim.nodes {
		tot, err := sim.population.Get(VarPopulation, t, idx, AllStratum)
		if err != nil {
			return err
		}
		totalPop[idx] = tot
		for b := 0; b < NumAgeGroups; b++ {
			ageStratum := Stratum{Age: b, Risk: StratAll, Vax: StratAll}
			asym, err := sim.population.Get(VarAsymptomatic, t, idx, ageStratum)
			if err != nil {
				return err
			}
			treat, err := sim.population.Get(VarTreatable, t, idx, ageStratum)
			if err != nil {
				return err
			}
			inf, err := sim.population.Get(VarInfectious, t, idx, ageStratum)
			if err != nil {
				return err
			}
			infectedByAge[idx][b] = asym + treat + inf
		}
	}

	unvaccinatedProb := make([][NumAgeGroups]float64, n)

	for i := 0; i < n; i++ {
		nodeI := sim.nodes[i].Id
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			nodeJ := sim.nodes[j].Id
			travelFracIJ := sim.travel.Get(nodeI, nodeJ) // fraction of I's population visiting J
			travelFracJI := sim.travel.Get(nodeJ, nodeI) // fraction of J's population visiting I
			if travelFracIJ == 0 && travelFracJI == 0 {
				continue
			}

			for a := 0; a < NumAgeGroups; a++ {
				var contactsIJ, contactsJI float64
				for b := 0; b < NumAgeGroups; b++ {
					npiJ := NpiEffectiveness(sim.params.NPIs, nodeJ, sim.time, a, b)
					npiI := NpiEffectiveness(sim.params.NPIs, nodeI, sim.time, a, b)
					contactsIJ += (1 - npiJ) * infectedByAge[j][b] * beta * rho * contactMatrix[a][b] * susceptibility[a] / ageBasedFlowReductions[a]
					contactsJI += (1 - npiI) * infectedByAge[j][b] * beta * rho * contactMatrix[a][b] * susceptibility[a] / ageBasedFlowReductions[b]
				}
				if totalPop[j] > 0 {
					unvaccinatedProb[i][a] += travelFracIJ * contactsIJ / totalPop[j]
				}
				if totalPop[i] > 0 {
					unvaccinatedProb[i][a] += travelFracJI * contactsJI / totalPop[i]
				}
			}
		}
	}

	for i := range sim.nodes {
		nodeI := sim.nodes[i].Id
		for a := 0; a < NumAgeGroups; a++ {
			for r := 0; r < NumRiskGroups; r++ {
				for v := 0; v < NumVaxGroups; v++ {
					s := Stratum{Age: a, Risk: r, Vax: v}
					prob := unvaccinatedProb[i][a]
					if prob <= 0 {
						continue
					}
					if v == 1 {
						totalVac, err := sim.population.Get(VarPopulation, t, i, Stratum{Age: a, Risk: r, Vax: 1})
						if err != nil {
							return err
						}
						if totalVac <= 0 {
							continue
						}
						latency := sim.vaccinatedInLatency(t, i, a, r)
						effective := totalVac - latency
						if effective < 0 {
							effective = 0
						}
						effectiveVaccineEffectiveness := sim.params.VaccineEffectiveness * effective / totalVac
						prob *= 1 - effectiveVaccineEffectiveness
					}
					if prob <= 0 {
						continue
					}

					susceptible, err := sim.population.Get(VarSusceptible, t, i, s)
					if err != nil {
						return err
					}
					if susceptible <= 0 {
						continue
					}

					numExposures := rng.Binomial(int(susceptible+0.5), prob)
					if numExposures <= 0 {
						continue
					}
					if _, err := sim.Expose(numExposures, nodeI, s, float64(t)); err != nil {
						return err
					}
				}
			}
		}
	}

	return nil
}
