// SPDX-License-Identifier: MIT

// Package bicop is the bivariate (pair) copula library used on every vine edge.
//
// What & Why
//
//   - Family is a closed tag: Indep, Gaussian, Student, Clayton, Gumbel, Frank, Joe
//     have built-in kernels. BB1/BB6/BB7/BB8/TLL are recognized tags without a kernel;
//     family sets naming them are rejected with ErrFamily before any fit starts.
//   - Each family stores only its unrotated density, first h-function and its inverse;
//     rotations by 90/180/270 degrees and the second h-function are derived by
//     reflecting arguments (all built-in families are exchangeable).
//   - Bicop is immutable: New validates, Fit and Select return new values.
//
// Conventions
//
//	HFunc1(u1,u2) = ∂C/∂u1 = P(U2 ≤ u2 | U1 = u1)
//	HFunc2(u1,u2) = ∂C/∂u2 = P(U1 ≤ u1 | U2 = u2)
//	HInv1(u1, ·) inverts HFunc1 in u2; HInv2(·, u2) inverts HFunc2 in u1.
//
// Rotation by 90 degrees uses (1-u1, u2), 180 uses (1-u1, 1-u2), 270 uses (u1, 1-u2).
//
// Estimation
//
//   - ITau inverts Kendall's tau (Student: rho from tau, nu profiled on a grid).
//   - MLE runs gonum's Nelder-Mead from the ITau estimate.
//   - Select scores (family, rotation) candidates by loglik/AIC/BIC/mBIC.
//
// Errors
//
//	ErrFamily, ErrRotation, ErrParameters, ErrMethod, ErrCriterion, ErrData.
package bicop
